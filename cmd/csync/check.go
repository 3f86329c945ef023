package main

import (
	"github.com/spf13/cobra"

	"github.com/t3bol90/csync/remote"
)

func newCheckCmd(a *app) *cobra.Command {
	var insecure bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the remote host is reachable over SSH and has rsync",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := a.resolve(ctx)
			if err != nil {
				return err
			}

			opts := a.probeOpts
			opts.Logger = a.logger
			opts.InsecureIgnoreHostKey = opts.InsecureIgnoreHostKey || insecure

			res, err := remote.Probe(ctx, cfg, opts)
			if err != nil {
				return err
			}

			a.printf("Connected to %s as %s (%s)\n", res.Addr, res.User, res.ServerVersion)
			if res.HasRemoteRsync() {
				a.printf("Remote rsync: %s\n", res.RemoteRsync)
			} else {
				a.printf("Remote rsync: not found; install rsync on %s before syncing\n", cfg.RemoteHost)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip host key verification")
	return cmd
}
