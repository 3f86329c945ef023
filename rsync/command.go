// Package rsync composes rsync command lines from a resolved configuration
// and runs them as a single child process.
//
// Arguments are always assembled in this order:
//
//  1. the configured sync options
//  2. --dry-run, when requested
//  3. one "--exclude", pattern pair per exclude pattern
//  4. "-e", "ssh -p <port>" when a port is configured
//  5. source, then destination
//
// Each element is a separate argv entry and no shell is involved, so patterns
// and paths containing spaces or glob characters reach rsync unchanged.
package rsync

import (
	"fmt"
	"strings"

	"github.com/t3bol90/csync/config"
)

// DefaultProgram is the executable looked up on PATH.
const DefaultProgram = "rsync"

// RunOptions are per-invocation switches that never alter the configuration.
type RunOptions struct {
	// DryRun adds --dry-run so rsync only reports what it would do.
	DryRun bool

	// Quiet captures the child's output instead of streaming it.
	Quiet bool
}

// Command is a program and its argument vector.
type Command struct {
	Program string
	Args    []string
}

// Build composes the rsync command for cfg in direction dir.
// cfg is not modified.
func Build(cfg config.SyncConfig, dir Direction, opts RunOptions) Command {
	args := make([]string, 0, len(cfg.SyncOptions)+2*len(cfg.ExcludePatterns)+5)
	args = append(args, cfg.SyncOptions...)

	if opts.DryRun {
		args = append(args, "--dry-run")
	}

	for _, pattern := range cfg.ExcludePatterns {
		args = append(args, "--exclude", pattern)
	}

	if cfg.SSHPort != 0 {
		args = append(args, "-e", fmt.Sprintf("ssh -p %d", cfg.SSHPort))
	}

	local, remote := cfg.LocalPath, cfg.RemoteTarget()
	if dir == Download {
		args = append(args, remote, local)
	} else {
		args = append(args, local, remote)
	}

	return Command{Program: DefaultProgram, Args: args}
}

// Argv returns the program followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Program}, c.Args...)
}

// String renders the command as a shell-quoted line for display.
// It is never executed by a shell.
func (c Command) String() string {
	argv := c.Argv()
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = shellescape(arg)
	}
	return strings.Join(quoted, " ")
}

// shellescape quotes s for a POSIX shell unless it is made of safe characters only.
func shellescape(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("@%+=:,./-_", r):
		return false
	default:
		return true
	}
}
