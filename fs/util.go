package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetAbs returns an absolute version of path using the process working directory.
func GetAbs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("fs: abs %q: %w", path, err)
	}
	return abs, nil
}

// ExpandHome replaces a leading "~" or "~/" in path with home.
// Paths of the form "~user/..." are returned unchanged.
func ExpandHome(path, home string) string {
	if home == "" {
		return path
	}
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return KeepTrailingSep(path, filepath.Join(home, path[2:]))
	default:
		return path
	}
}

// HasTrailingSep reports whether path ends in a path separator.
func HasTrailingSep(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator))
}

// KeepTrailingSep appends a separator to cleaned when original had one.
// filepath.Join and filepath.Clean strip trailing separators, which changes
// what rsync copies (a directory versus its contents).
func KeepTrailingSep(original, cleaned string) string {
	if HasTrailingSep(original) && !HasTrailingSep(cleaned) {
		return cleaned + string(os.PathSeparator)
	}
	return cleaned
}
