// Package executor runs external commands for csync.
//
// A command is run directly, never through a shell, with output either
// streamed to the terminal, captured, or both. While the child runs, selected
// signals received by the parent are forwarded to it, and cancelling the
// context interrupts the child before killing it after a grace period.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"
)

// DefaultWaitDelay is how long a cancelled child is given to exit after the
// interrupt before it is killed.
const DefaultWaitDelay = 5 * time.Second

// Result holds the output and error from a command execution
type Result struct {
	Stdout   string
	Stderr   string
	Combined string

	// ExitCode is the child's exit status, or -1 when it never started or
	// was terminated by a signal.
	ExitCode int
	Err      error
}

// Executor defines the interface for command execution
type Executor interface {
	// Execute runs a command with the given options
	Execute(ctx context.Context, opts ...Option) (*Result, error)
}

// Factory creates an Executor for program and args.
type Factory func(program string, args ...string) Executor

// NewExecutor is the Factory backed by CommandExecutor.
//
//nolint:ireturn // matches the Factory signature.
func NewExecutor(program string, args ...string) Executor {
	return New(program, args...)
}

// CommandExecutor implements the Executor interface
type CommandExecutor struct {
	program string
	args    []string
	options *Options
}

// Options configures command execution behavior
type Options struct {
	// Output handling
	CaptureStdout     bool
	CaptureStderr     bool
	CaptureCombined   bool
	RedirectToConsole bool

	// Working directory
	WorkingDir string

	// Environment variables (appended to current env)
	Env map[string]string

	// Custom stdout/stderr writers (for advanced use cases)
	StdoutWriter io.Writer
	StderrWriter io.Writer

	// Stdin is connected to the child's standard input when set.
	Stdin io.Reader

	// ForwardSignals lists the signals relayed to the child while it runs.
	ForwardSignals []os.Signal

	// WaitDelay bounds how long a cancelled child may take to exit.
	WaitDelay time.Duration
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns default execution options
func DefaultOptions() *Options {
	return &Options{
		CaptureStdout:     true,
		CaptureStderr:     true,
		CaptureCombined:   false,
		RedirectToConsole: false,
		Env:               make(map[string]string),
		WaitDelay:         DefaultWaitDelay,
	}
}

// New creates a new CommandExecutor
func New(program string, args ...string) *CommandExecutor {
	return &CommandExecutor{
		program: program,
		args:    args,
		options: DefaultOptions(),
	}
}

// Program returns the program the executor runs.
func (c *CommandExecutor) Program() string {
	return c.program
}

// Args returns a copy of the arguments passed to the program.
func (c *CommandExecutor) Args() []string {
	return append([]string(nil), c.args...)
}

// Execute implements the Executor interface.
// It blocks until the child exits. A non-zero exit is reported both in the
// Result and as an error wrapping *exec.ExitError.
func (c *CommandExecutor) Execute(ctx context.Context, opts ...Option) (*Result, error) {
	options := c.mergeOptions(opts...)

	cmd := exec.CommandContext(ctx, c.program, c.args...)
	c.setupCommand(cmd, options)
	stdoutBuf, stderrBuf, combinedBuf := c.setupOutputCapture(cmd, options)

	err := c.run(cmd, options)

	result := c.createResult(stdoutBuf, stderrBuf, combinedBuf, err)
	if err != nil {
		return result, fmt.Errorf("command execution failed: %w", err)
	}
	return result, nil
}

// run starts cmd and waits for it, relaying signals in between.
func (c *CommandExecutor) run(cmd *exec.Cmd, options *Options) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	if len(options.ForwardSignals) == 0 {
		return cmd.Wait()
	}

	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, options.ForwardSignals...)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)
	return err
}

// setupCommand configures the exec.Cmd with working directory, environment,
// input and cancellation behaviour
func (c *CommandExecutor) setupCommand(cmd *exec.Cmd, options *Options) {
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if options.Stdin != nil {
		cmd.Stdin = options.Stdin
	}

	// Cancellation interrupts the child; Wait kills it once WaitDelay has passed.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = options.WaitDelay
}

// setupOutputCapture configures stdout and stderr writers for the command
func (c *CommandExecutor) setupOutputCapture(
	cmd *exec.Cmd,
	options *Options,
) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	var stdoutBuf, stderrBuf, combinedBuf bytes.Buffer

	stdoutWriters := []io.Writer{}
	if options.CaptureCombined {
		stdoutWriters = append(stdoutWriters, &combinedBuf)
	} else if options.CaptureStdout {
		stdoutWriters = append(stdoutWriters, &stdoutBuf)
	}
	if options.RedirectToConsole {
		stdoutWriters = append(stdoutWriters, os.Stdout)
	}
	if options.StdoutWriter != nil {
		stdoutWriters = append(stdoutWriters, options.StdoutWriter)
	}
	cmd.Stdout = joinWriters(stdoutWriters)

	stderrWriters := []io.Writer{}
	if options.CaptureCombined {
		stderrWriters = append(stderrWriters, &combinedBuf)
	} else if options.CaptureStderr {
		stderrWriters = append(stderrWriters, &stderrBuf)
	}
	if options.RedirectToConsole {
		stderrWriters = append(stderrWriters, os.Stderr)
	}
	if options.StderrWriter != nil {
		stderrWriters = append(stderrWriters, options.StderrWriter)
	}
	cmd.Stderr = joinWriters(stderrWriters)

	return &stdoutBuf, &stderrBuf, &combinedBuf
}

// joinWriters returns nil for no writers and the writer itself for one, so an
// *os.File reaches the child directly instead of through a copying pipe.
func joinWriters(writers []io.Writer) io.Writer {
	switch len(writers) {
	case 0:
		return nil
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

// createResult creates a Result from command execution and error
func (c *CommandExecutor) createResult(
	stdoutBuf, stderrBuf, combinedBuf *bytes.Buffer,
	err error,
) *Result {
	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Combined: combinedBuf.String(),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case err != nil && errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case err == nil:
		result.ExitCode = 0
	default:
		result.ExitCode = -1
	}

	return result
}

func (c *CommandExecutor) mergeOptions(opts ...Option) *Options {
	merged := *c.options
	for _, opt := range opts {
		opt(&merged)
	}
	return &merged
}

// Option functions for fluent configuration

// WithCapture configures output capture
func WithCapture(stdout, stderr, combined bool) Option {
	return func(o *Options) {
		o.CaptureStdout = stdout
		o.CaptureStderr = stderr
		o.CaptureCombined = combined
	}
}

// WithConsoleRedirect enables/disables console output
func WithConsoleRedirect(redirect bool) Option {
	return func(o *Options) {
		o.RedirectToConsole = redirect
	}
}

// WithWorkingDir sets the working directory
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		env := make(map[string]string, len(o.Env)+1)
		for k, v := range o.Env {
			env[k] = v
		}
		env[key] = value
		o.Env = env
	}
}

// WithStdoutWriter sets a custom stdout writer
func WithStdoutWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StdoutWriter = w
	}
}

// WithStderrWriter sets a custom stderr writer
func WithStderrWriter(w io.Writer) Option {
	return func(o *Options) {
		o.StderrWriter = w
	}
}

// WithStdin connects r to the child's standard input.
func WithStdin(r io.Reader) Option {
	return func(o *Options) {
		o.Stdin = r
	}
}

// WithSignalForwarding relays sigs received by this process to the child
// for as long as it runs. The parent does not act on them itself.
func WithSignalForwarding(sigs ...os.Signal) Option {
	return func(o *Options) {
		o.ForwardSignals = append([]os.Signal(nil), sigs...)
	}
}

// WithWaitDelay sets how long a cancelled child may take to exit before it is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(o *Options) {
		o.WaitDelay = d
	}
}

// Convenience functions for common patterns

// SilentMode captures output without console redirect
func SilentMode() Option {
	return func(o *Options) {
		o.CaptureStdout = true
		o.CaptureStderr = true
		o.RedirectToConsole = false
	}
}

// Passthrough streams output to w and errW without capturing it and hands
// the child this process's standard input, so prompts from ssh still work.
func Passthrough(w, errW io.Writer) Option {
	return func(o *Options) {
		o.CaptureStdout = false
		o.CaptureStderr = false
		o.CaptureCombined = false
		o.RedirectToConsole = false
		o.StdoutWriter = w
		o.StderrWriter = errW
		o.Stdin = os.Stdin
	}
}
