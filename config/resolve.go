package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/fs"
	"github.com/t3bol90/csync/git"
)

// ResolveOptions configures Resolve.
type ResolveOptions struct {
	// ExplicitPath names the configuration file to use. Discovery is skipped
	// when it is set. Relative paths are taken from StartDir.
	ExplicitPath string

	// StartDir is the directory discovery starts from, usually the working directory.
	StartDir string

	// HomeDir replaces a leading "~/" in local_path. Empty disables expansion.
	HomeDir string

	// Logger receives debug diagnostics. Nil disables logging.
	Logger *slog.Logger
}

// Resolve locates, decodes, normalises and validates the configuration that
// applies to opts.StartDir (or the file named by opts.ExplicitPath).
//
// Errors carry a code from the errors package: NOT_FOUND when no file exists
// and INVALID_CONFIGURATION, with the offending field in the error context,
// when the file cannot be parsed or a field is missing or invalid.
func Resolve(ctx context.Context, fsys fs.Filesystem, opts ResolveOptions) (SyncConfig, error) {
	if err := ctx.Err(); err != nil {
		return SyncConfig{}, err
	}

	path := opts.ExplicitPath
	if path == "" {
		found, err := Discover(fsys, opts.StartDir)
		if err != nil {
			return SyncConfig{}, err
		}
		path = found
		if opts.Logger != nil {
			opts.Logger.DebugContext(ctx, "discovered configuration file", "path", path)
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(opts.StartDir, path)
	}

	return Load(ctx, fsys, path, opts)
}

// Load reads the configuration file at path without discovery.
// opts.ExplicitPath and opts.StartDir are ignored.
func Load(ctx context.Context, fsys fs.Filesystem, path string, opts ResolveOptions) (SyncConfig, error) {
	abs, err := fs.GetAbs(path)
	if err != nil {
		return SyncConfig{}, errors.Wrap(err, errors.CodeInvalidInput, "resolving configuration path")
	}

	exists, err := fsys.Exists(abs)
	if err != nil {
		return SyncConfig{}, errors.WrapWithContext(err, errors.CodeInternal,
			"checking configuration file", map[string]interface{}{errors.KeyPath: abs})
	}
	if !exists {
		return SyncConfig{}, errors.NotFound("configuration file not found: "+abs, abs)
	}

	data, err := fsys.ReadFile(abs)
	if err != nil {
		return SyncConfig{}, errors.WrapWithContext(err, errors.CodeInternal,
			"reading configuration file", map[string]interface{}{errors.KeyPath: abs})
	}

	fields, err := decoderFor(abs).Decode(data)
	if err != nil {
		return SyncConfig{}, withPath(err, abs)
	}

	cfg, err := fields.toConfig(filepath.Dir(abs), opts.HomeDir)
	if err != nil {
		return SyncConfig{}, withPath(err, abs)
	}
	cfg.Source = abs

	if err := ctx.Err(); err != nil {
		return SyncConfig{}, err
	}

	if cfg.RespectGitignore {
		cfg.ExcludePatterns = mergeIgnorePatterns(ctx, fsys, cfg, opts.Logger)
	}

	if err := cfg.Validate(); err != nil {
		return SyncConfig{}, withPath(err, abs)
	}

	if opts.Logger != nil {
		opts.Logger.DebugContext(ctx, "resolved configuration",
			"source", cfg.Source,
			"local_path", cfg.LocalPath,
			"remote", cfg.RemoteTarget(),
			"excludes", len(cfg.ExcludePatterns),
		)
	}
	return cfg, nil
}

// mergeIgnorePatterns returns cfg.ExcludePatterns followed by the patterns of
// the project's .gitignore files, root first and nested ones prefixed with
// their directory, without duplicates. Read failures only log.
func mergeIgnorePatterns(ctx context.Context, fsys fs.Filesystem, cfg SyncConfig, logger *slog.Logger) []string {
	patterns, err := git.CollectIgnorePatterns(fsys, cfg.LocalPath)
	if err != nil {
		if logger != nil {
			logger.DebugContext(ctx, "ignoring unreadable .gitignore",
				"dir", cfg.LocalPath,
				"error", err,
			)
		}
		return cfg.ExcludePatterns
	}
	if len(patterns) == 0 {
		return cfg.ExcludePatterns
	}

	merged := make([]string, 0, len(cfg.ExcludePatterns)+len(patterns))
	merged = append(merged, cfg.ExcludePatterns...)
	merged = append(merged, patterns...)
	return dedupe(merged)
}

// withPath attaches the configuration file path to a coded error.
func withPath(err error, path string) error {
	if e, ok := errors.As(err); ok {
		return e.WithContext(errors.KeyPath, path)
	}
	return err
}
