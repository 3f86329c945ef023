package rsync

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/t3bol90/csync/config"
	"github.com/t3bol90/csync/errors"
	"github.com/t3bol90/csync/executor"
)

// stderrTailLines is how much captured stderr is attached to a failure.
const stderrTailLines = 20

// Runner runs rsync commands.
type Runner struct {
	program     string
	logger      *slog.Logger
	lookPath    func(file string) (string, error)
	newExecutor executor.Factory
	stdout      io.Writer
	stderr      io.Writer
	signals     []os.Signal
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgram sets the executable to run instead of rsync.
func WithProgram(program string) Option {
	return func(r *Runner) {
		r.program = program
	}
}

// WithLogger sets the logger for the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLookPath replaces exec.LookPath for resolving the program.
func WithLookPath(fn func(file string) (string, error)) Option {
	return func(r *Runner) {
		r.lookPath = fn
	}
}

// WithExecutorFactory replaces the factory used to spawn the program.
func WithExecutorFactory(f executor.Factory) Option {
	return func(r *Runner) {
		r.newExecutor = f
	}
}

// WithStdout sets where the child's output is streamed when not quiet.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr sets where the child's errors are streamed when not quiet.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		r.stderr = w
	}
}

// WithSignals sets the signals forwarded to the child while it runs.
// Passing none disables forwarding.
func WithSignals(sigs ...os.Signal) Option {
	return func(r *Runner) {
		r.signals = sigs
	}
}

// NewRunner creates a Runner. By default it runs rsync from PATH, streams to
// the process's stdout and stderr, and forwards interrupt, terminate and
// hangup signals to the child.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		program:     DefaultProgram,
		lookPath:    exec.LookPath,
		newExecutor: executor.NewExecutor,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		signals:     []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Program returns the executable the runner invokes.
func (r *Runner) Program() string {
	return r.program
}

// Command returns the command Run would execute.
func (r *Runner) Command(cfg config.SyncConfig, dir Direction, opts RunOptions) Command {
	cmd := Build(cfg, dir, opts)
	cmd.Program = r.program
	return cmd
}

// Run executes one transfer and blocks until the child exits.
//
// A zero exit returns (0, nil). A non-zero exit returns the child's code with
// a SYNC_FAILED error carrying the code and command line. When the program
// cannot be found or started a TOOL_NOT_FOUND error is returned and no child
// is spawned. An invalid configuration is rejected before anything runs.
// Transfers are never retried.
func (r *Runner) Run(ctx context.Context, cfg config.SyncConfig, dir Direction, opts RunOptions) (int, error) {
	if err := cfg.Validate(); err != nil {
		return -1, err
	}

	cmd := r.Command(cfg, dir, opts)
	line := cmd.String()

	path, err := r.lookPath(cmd.Program)
	if err != nil {
		return -1, errors.ToolNotFound(cmd.Program, line, err)
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "starting transfer",
			"direction", dir.String(),
			"command", line,
			"dry_run", opts.DryRun,
		)
	}

	execOpts := []executor.Option{executor.Passthrough(r.stdout, r.stderr)}
	if opts.Quiet {
		execOpts = []executor.Option{executor.SilentMode()}
	}
	if len(r.signals) > 0 {
		execOpts = append(execOpts, executor.WithSignalForwarding(r.signals...))
	}

	result, err := r.newExecutor(path, cmd.Args...).Execute(ctx, execOpts...)
	if err == nil {
		if r.logger != nil {
			r.logger.InfoContext(ctx, "transfer finished", "direction", dir.String())
		}
		return 0, nil
	}

	return r.failure(ctx, cmd, line, result, err, opts.Quiet)
}

// failure classifies a failed execution.
func (r *Runner) failure(
	ctx context.Context,
	cmd Command,
	line string,
	result *executor.Result,
	err error,
	quiet bool,
) (int, error) {
	code := -1
	if result != nil {
		code = result.ExitCode
	}

	var exitErr *exec.ExitError
	if code <= 0 && !stderrors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, errors.Wrap(ctxErr, errors.CodeSyncFailed, "transfer interrupted")
		}
		return -1, errors.ToolNotFound(cmd.Program, line, err)
	}

	e := errors.SyncFailed(cmd.Program, code, line)
	if quiet && result != nil {
		if tail := lastLines(result.Stderr, stderrTailLines); tail != "" {
			e = e.WithContext(errors.KeyStderr, tail)
		}
	}

	if r.logger != nil {
		r.logger.ErrorContext(ctx, "transfer failed",
			"exit_code", code,
			"command", line,
		)
	}
	return code, e
}

// BuildAndRun runs one transfer with a default Runner.
func BuildAndRun(ctx context.Context, cfg config.SyncConfig, dir Direction, dryRun, quiet bool) (int, error) {
	return NewRunner().Run(ctx, cfg, dir, RunOptions{DryRun: dryRun, Quiet: quiet})
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
