// Package config handles loading and validating the mirror's settings. It
// supports YAML configuration files and provides sensible defaults, so a
// missing config file is not an error.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/cratesync/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// CacheDir is the mirror root holding the index working copy and the
	// archive tree. Usually supplied on the command line instead.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Jobs is the number of parallel downloads.
	Jobs int `yaml:"jobs"`

	// Network settings.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Contact is appended to the User-Agent so upstream operators can reach
	// the mirror operator. Registries ask for this on heavy crawlers.
	Contact string `yaml:"contact,omitempty"`

	// Output settings.
	LogLevel string `yaml:"log_level"` // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultJobs is the default number of parallel downloads.
	DefaultJobs = 1

	// DefaultHTTPTimeout is the default timeout for a single archive download.
	DefaultHTTPTimeout = 5 * time.Minute

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Jobs:        DefaultJobs,
			HTTPTimeout: DefaultHTTPTimeout,
			LogLevel:    "info",
		},
	}
}

// LoadConfig loads configuration from a file. A nonexistent file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config path: %s", path)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// applyDefaults fills in zero-valued settings.
func (c *Config) applyDefaults() {
	if c.Settings.Jobs == 0 {
		c.Settings.Jobs = DefaultJobs
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if c.Settings.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Settings.Jobs)
	}
	if c.Settings.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative, got %s", c.Settings.HTTPTimeout)
	}
	switch c.Settings.LogLevel {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("unknown log level %q", c.Settings.LogLevel)
	}
	return nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "invalid config path: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to encode config")
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}

	return os.Chmod(absPath, 0o644)
}

// UserAgent builds the User-Agent string sent on archive downloads.
func (c *Config) UserAgent(version string) string {
	ua := "cratesync/" + version
	if c.Settings.Contact != "" {
		ua += " (" + c.Settings.Contact + ")"
	}
	return ua
}
