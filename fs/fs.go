// Package fs defines the filesystem abstraction csync reads and writes through.
// Configuration discovery, ignore-file parsing and sample generation all take a
// Filesystem so they can run against the native filesystem or a synthetic
// in-memory tree in tests.
package fs

import "os"

// File represents an open file handle supporting basic I/O operations.
// Implementations should behave consistently with the standard library.
type File interface {
	Close() error
	Name() string
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
}

// Filesystem is the subset of filesystem operations csync needs.
// Paths are interpreted by the implementation; the native implementation
// accepts absolute paths.
type Filesystem interface {
	// Exists reports whether path exists. A missing path is not an error.
	Exists(path string) (bool, error)
	// Stat returns file info for name.
	Stat(name string) (os.FileInfo, error)
	// ReadFile reads the whole file at path.
	ReadFile(path string) ([]byte, error)
	// WriteFile writes data to filename, truncating any existing content.
	WriteFile(filename string, data []byte, perm os.FileMode) error
	// OpenFile opens name with the given flags.
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	// MkdirAll creates path and any missing parents.
	MkdirAll(path string, perm os.FileMode) error
}
