package git

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/t3bol90/csync/fs"
	"github.com/t3bol90/csync/git/internal/fsbridge"
)

// IgnoreFile is the name of the ignore file read from a project root.
const IgnoreFile = ".gitignore"

const ignoreHeader = "# csync configuration"

// MaxIgnoreDepth is how many directory levels below the project root are
// searched for nested ignore files.
const MaxIgnoreDepth = 5

// skippedDirs are never searched for nested ignore files.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// ReadIgnorePatterns returns the exclude patterns listed in dir/.gitignore, in
// file order. Blank lines and comments are skipped, as are negations, which
// have no rsync exclude equivalent. A leading "\#" or "\!" is unescaped.
//
// A missing file yields no patterns and no error. Any other read failure is
// returned so the caller can decide whether it matters.
func ReadIgnorePatterns(fsys fs.Filesystem, dir string) ([]string, error) {
	data, err := fsys.ReadFile(filepath.Join(dir, IgnoreFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, WrapErrorf(err, "reading %s", IgnoreFile)
	}
	return ParseIgnorePatterns(data), nil
}

// CollectIgnorePatterns returns the patterns of dir/.gitignore followed by the
// patterns of every .gitignore found up to MaxIgnoreDepth levels below dir.
// Nested patterns are prefixed with their directory relative to dir, so
// "cache/" in sub/.gitignore becomes "sub/cache/". Dependency and VCS
// directories are not searched, and unreadable nested files are skipped.
//
// Errors reading dir/.gitignore are returned as by ReadIgnorePatterns. On a
// filesystem that cannot be walked only the root patterns are returned.
func CollectIgnorePatterns(fsys fs.Filesystem, dir string) ([]string, error) {
	patterns, err := ReadIgnorePatterns(fsys, dir)
	if err != nil {
		return nil, err
	}

	root, err := fsbridge.Chroot(fsys, dir)
	if err != nil {
		return patterns, nil
	}

	walkErr := util.Walk(root, ".", func(name string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		if !info.IsDir() || name == "." {
			return nil
		}
		if skippedDirs[info.Name()] {
			return filepath.SkipDir
		}

		rel := filepath.ToSlash(name)
		if strings.Count(rel, "/")+1 > MaxIgnoreDepth {
			return filepath.SkipDir
		}

		data, err := util.ReadFile(root, path.Join(rel, IgnoreFile))
		if err != nil {
			return nil
		}
		for _, p := range ParseIgnorePatterns(data) {
			patterns = append(patterns, rel+"/"+strings.TrimPrefix(p, "/"))
		}
		return nil
	})
	if walkErr != nil {
		return patterns, WrapErrorf(walkErr, "searching %s for nested %s files", dir, IgnoreFile)
	}

	return patterns, nil
}

// ParseIgnorePatterns extracts exclude patterns from the contents of an ignore file.
func ParseIgnorePatterns(data []byte) []string {
	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "!"):
			continue
		case strings.HasPrefix(line, `\#`), strings.HasPrefix(line, `\!`):
			line = line[1:]
		}
		patterns = append(patterns, line)
	}
	return patterns
}

// IsIgnored reports whether name, relative to dir, is ignored by the ignore
// files found under dir. Nested .gitignore files and .git/info/exclude are
// honoured the same way git honours them.
func IsIgnored(fsys fs.Filesystem, dir, name string) (bool, error) {
	parts, err := splitRelative(name)
	if err != nil {
		return false, err
	}

	root, err := fsbridge.Chroot(fsys, dir)
	if err != nil {
		return false, errors.Join(ErrUnsupportedFilesystem, err)
	}

	patterns, err := gitignore.ReadPatterns(root, nil)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, WrapErrorf(err, "loading ignore rules from %s", dir)
	}

	return gitignore.NewMatcher(patterns).Match(parts, false), nil
}

// EnsureIgnored appends name to dir/.gitignore under a csync header unless the
// existing rules already ignore it. The file is created when missing. It
// reports whether the file was changed.
func EnsureIgnored(fsys fs.Filesystem, dir, name string) (bool, error) {
	ignored, err := IsIgnored(fsys, dir, name)
	if err != nil {
		return false, err
	}
	if ignored {
		return false, nil
	}

	target := filepath.Join(dir, IgnoreFile)
	existing, err := fsys.ReadFile(target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, WrapErrorf(err, "reading %s", target)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 {
		if !bytes.HasSuffix(existing, []byte("\n")) {
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(ignoreHeader + "\n")
	buf.WriteString(path.Clean(filepath.ToSlash(name)) + "\n")

	if err := fsys.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return false, WrapErrorf(err, "writing %s", target)
	}
	return true, nil
}

func splitRelative(name string) ([]string, error) {
	if name == "" || filepath.IsAbs(name) {
		return nil, WrapErrorf(ErrInvalidPath, "%q", name)
	}
	clean := path.Clean(filepath.ToSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, WrapErrorf(ErrInvalidPath, "%q", name)
	}
	return strings.Split(clean, "/"), nil
}
