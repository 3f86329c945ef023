package config

import (
	"path/filepath"
	"strings"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/fs"
)

// Format identifies the syntax of a configuration file.
type Format int

const (
	// FormatUnknown is used for files whose extension is not recognised.
	FormatUnknown Format = iota
	FormatINI
	FormatJSON
	FormatYAML
)

// String returns the lowercase name of the format.
func (f Format) String() string {
	switch f {
	case FormatINI:
		return "ini"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// DefaultFileName is the file written by `csync init` when no name is given.
const DefaultFileName = ".csync.cfg"

// FileNames lists the recognised configuration file names in priority order.
var FileNames = []string{
	".csync.cfg",
	".csync.ini",
	".csync.json",
	".csync_config.json",
	".csync.yaml",
	".csync.yml",
	".csync_config.yaml",
	".csync_config.yml",
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cfg", ".ini":
		return FormatINI
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// Discover finds the configuration file that applies to startDir.
//
// startDir and then each of its ancestors, up to and including the filesystem
// root, is checked for the names in FileNames. The first directory holding any
// of them ends the search and the highest-priority name in it is returned;
// files in different directories are never combined.
//
// A NOT_FOUND error is returned when no directory holds a configuration file.
func Discover(fsys fs.Filesystem, startDir string) (string, error) {
	dir, err := fs.GetAbs(startDir)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput, "resolving start directory")
	}
	dir = filepath.Clean(dir)

	for {
		if path, ok := findIn(fsys, dir); ok {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NotFound(
		"no configuration file found in "+startDir+" or any parent directory; run `csync init` to create one",
		startDir,
	)
}

// findIn returns the highest-priority configuration file in dir.
func findIn(fsys fs.Filesystem, dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := fsys.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return path, true
	}
	return "", false
}
