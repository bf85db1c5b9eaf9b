package errors

import "fmt"

// Common error types.
var (
	// Index errors.
	ErrIndexUnavailable = fmt.Errorf("index unavailable")
	ErrIndexCorrupt     = fmt.Errorf("index corrupt")
	ErrIndexNotFound    = fmt.Errorf("index working copy not found")
	ErrIndexExists      = fmt.Errorf("index working copy already exists")
	ErrConfigNotFound   = fmt.Errorf("index configuration not found")
	ErrMalformedEntry   = fmt.Errorf("malformed index entry")

	// Download errors.
	ErrTransient        = fmt.Errorf("transient download failure")
	ErrIntegrity        = fmt.Errorf("integrity failure")
	ErrChecksumMismatch = fmt.Errorf("checksum mismatch: %w", ErrIntegrity)
	ErrSizeMismatch     = fmt.Errorf("size mismatch: %w", ErrIntegrity)
	ErrDownloadFailed   = fmt.Errorf("download failed")

	// Cache errors.
	ErrCacheDirectory = fmt.Errorf("cache directory cannot be empty")
	ErrInvalidPath    = fmt.Errorf("invalid path")
	ErrNotFound       = fmt.Errorf("not found")

	// Config errors.
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid config")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
