package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/t3bol90/csync/config"
	"github.com/t3bol90/csync/fs"
	"github.com/t3bol90/csync/fs/billy"
	"github.com/t3bol90/csync/remote"
	"github.com/t3bol90/csync/rsync"
)

// app carries the dependencies shared by every command. Tests replace the
// filesystem, the working directory and the process hooks.
type app struct {
	stdout io.Writer
	stderr io.Writer
	fsys   fs.Filesystem
	getwd  func() (string, error)
	home   func() (string, error)

	globalPath func() string
	runnerOpts []rsync.Option
	probeOpts  remote.ProbeOptions

	logger *slog.Logger

	configPath string
	logLevel   string
	logFormat  string
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:     stdout,
		stderr:     stderr,
		fsys:       billy.NewBaseOSFS(),
		getwd:      os.Getwd,
		home:       os.UserHomeDir,
		globalPath: config.DefaultGlobalPath,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// newLogger creates a logger writing to w at the given level and format.
func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, usageErrorf("unknown log level %q (want debug, info, warn or error)", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, usageErrorf("unknown log format %q (want text or json)", format)
	}
}

// resolve finds and validates the project configuration for the working directory.
func (a *app) resolve(ctx context.Context) (config.SyncConfig, error) {
	cwd, err := a.getwd()
	if err != nil {
		return config.SyncConfig{}, fmt.Errorf("getting working directory: %w", err)
	}
	home, _ := a.home()

	return config.Resolve(ctx, a.fsys, config.ResolveOptions{
		ExplicitPath: a.configPath,
		StartDir:     cwd,
		HomeDir:      home,
		Logger:       a.logger,
	})
}

func (a *app) runner() *rsync.Runner {
	opts := []rsync.Option{
		rsync.WithLogger(a.logger),
		rsync.WithStdout(a.stdout),
		rsync.WithStderr(a.stderr),
	}
	return rsync.NewRunner(append(opts, a.runnerOpts...)...)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}
