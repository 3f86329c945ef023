package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t3bol90/csync/errors"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "csync",
		Short: "Sync a project directory with a remote host using rsync",
		Long: `csync mirrors a project directory to and from a remote host over SSH.

Settings live in a .csync.cfg (or .csync.json / .csync.yaml) file in the
project directory or any parent directory. Run "csync init" to create one.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.logLevel, a.logFormat, a.stderr)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return cmd.Help()
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to the configuration file (skips discovery)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "diagnostic level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "text", "diagnostic format: text or json")

	root.AddCommand(
		newTransferCmd(a, transferUpload),
		newTransferCmd(a, transferDownload),
		newStatusCmd(a),
		newInitCmd(a),
		newConfigureCmd(a),
		newCheckCmd(a),
		newVersionCmd(a),
	)
	return root
}

// run executes the command line in args and returns the process exit status.
func run(ctx context.Context, args []string, a *app) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		report(a, err)
	}
	return exitCode(err)
}

// report prints err for the user, followed by any captured rsync output.
func report(a *app, err error) {
	_, _ = fmt.Fprintf(a.stderr, "Error: %v\n", err)

	if tail, ok := errors.GetContext(err, errors.KeyStderr); ok {
		_, _ = fmt.Fprintf(a.stderr, "\nrsync output:\n%v\n", tail)
	}
	if errors.HasCode(err, errors.CodeToolNotFound) {
		if line, ok := errors.GetContext(err, errors.KeyCommand); ok {
			_, _ = fmt.Fprintf(a.stderr, "Attempted: %v\n", line)
		}
	}
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("%q accepts no arguments", cmd.CommandPath())
	}
	return nil
}
