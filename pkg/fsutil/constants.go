package fsutil

// File and directory permission constants used consistently across the cache
// tree so archives and the index working copy end up world-readable (the cache
// is meant to be served by an external static file server).
const (
	// FileModeDefault is the mode for committed archive files.
	FileModeDefault = 0o644 // -rw-r--r--

	// DirModeDefault is the mode for cache directories.
	DirModeDefault = 0o755 // drwxr-xr-x
)
