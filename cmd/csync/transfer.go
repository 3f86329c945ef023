package main

import (
	"github.com/spf13/cobra"

	"github.com/t3bol90/csync/rsync"
)

type transfer struct {
	use   string
	alias string
	short string
	dir   rsync.Direction
}

var (
	transferUpload = transfer{
		use:   "push",
		alias: "upload",
		short: "Send local files to the remote host",
		dir:   rsync.Upload,
	}
	transferDownload = transfer{
		use:   "pull",
		alias: "download",
		short: "Fetch remote files into the local directory",
		dir:   rsync.Download,
	}
)

func newTransferCmd(a *app, t transfer) *cobra.Command {
	var opts rsync.RunOptions

	cmd := &cobra.Command{
		Use:     t.use,
		Aliases: []string{t.alias},
		Short:   t.short,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := a.resolve(ctx)
			if err != nil {
				return err
			}

			r := a.runner()
			if !opts.Quiet {
				if opts.DryRun {
					a.printf("Dry run: nothing will be changed\n")
				}
				a.printf("Executing: %s\n", r.Command(cfg, t.dir, opts))
			}

			if _, err := r.Run(ctx, cfg, t.dir, opts); err != nil {
				return err
			}
			if !opts.Quiet {
				a.printf("%s finished: %s\n", t.use, describe(cfg, t.dir))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "show what would be transferred without changing anything")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "capture rsync output and only show it on failure")
	return cmd
}
