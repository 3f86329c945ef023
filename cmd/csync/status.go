package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/t3bol90/csync/config"
	"github.com/t3bol90/csync/remote"
	"github.com/t3bol90/csync/rsync"
)

// statusExcludeLimit is how many exclude patterns status lists.
const statusExcludeLimit = 10

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the resolved configuration without transferring anything",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := a.resolve(ctx)
			if err != nil {
				return err
			}

			r := a.runner()
			tool := "not found"
			if v, err := rsync.Version(ctx, r); err != nil {
				a.logger.DebugContext(ctx, "rsync version unavailable", "error", err)
			} else {
				tool = v.String()
				if rsync.Outdated(v) {
					tool += fmt.Sprintf(" (older than %s, some options may be unsupported)", rsync.MinimumVersion)
				}
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			row := func(k, v string) { _, _ = fmt.Fprintf(tw, "%s\t%s\n", k, v) }

			row("Config file", cfg.Source)
			row("Local path", cfg.LocalPath)
			row("Remote", cfg.RemoteTarget())
			row("SSH port", portLabel(cfg.SSHPort))
			row("Options", optionsLabel(cfg.SyncOptions))
			row("Excludes", fmt.Sprintf("%d patterns", len(cfg.ExcludePatterns)))
			row("Respect .gitignore", yesNo(cfg.RespectGitignore))
			row("Local status", localStatus(a, cfg.LocalPath))
			row(r.Program(), tool)
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(cfg.ExcludePatterns) > 0 {
				title := "\nExclude patterns:\n"
				if len(cfg.ExcludePatterns) > statusExcludeLimit {
					title = fmt.Sprintf("\nExclude patterns (first %d):\n", statusExcludeLimit)
				}
				a.printf("%s", title)
				for i, p := range cfg.ExcludePatterns {
					if i == statusExcludeLimit {
						break
					}
					a.printf("  - %s\n", p)
				}
			}
			return nil
		},
	}
}

// describe renders the source and destination of a transfer.
func describe(cfg config.SyncConfig, dir rsync.Direction) string {
	if dir == rsync.Download {
		return cfg.RemoteTarget() + " -> " + cfg.LocalPath
	}
	return cfg.LocalPath + " -> " + cfg.RemoteTarget()
}

func portLabel(port int) string {
	if port == 0 {
		return strconv.Itoa(remote.DefaultPort) + " (default)"
	}
	return strconv.Itoa(port)
}

func optionsLabel(opts []string) string {
	if len(opts) == 0 {
		return "none"
	}
	return strings.Join(opts, " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func localStatus(a *app, path string) string {
	ok, err := a.fsys.Exists(path)
	switch {
	case err != nil:
		return "unknown: " + err.Error()
	case ok:
		return "exists"
	default:
		return "missing"
	}
}
