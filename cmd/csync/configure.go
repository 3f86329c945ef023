package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/t3bol90/csync/config"
)

func newConfigureCmd(a *app) *cobra.Command {
	var (
		updates config.GlobalDefaults
		show    bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set or show the defaults used by init",
		Long: `Set or show user-level defaults stored in $XDG_CONFIG_HOME/csync/config.cfg.
They pre-fill files created by "csync init" and never affect an existing project.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.globalPath()

			if cmd.Flags().Changed("ssh-port") && (updates.SSHPort < 1 || updates.SSHPort > config.MaxPort) {
				return usageErrorf("--ssh-port must be between 1 and %d", config.MaxPort)
			}

			if !show && !updates.IsZero() {
				if err := config.SaveGlobalDefaults(a.fsys, path, updates); err != nil {
					return err
				}
				a.printf("Saved defaults to %s\n", path)
			}

			if show || updates.IsZero() {
				current, err := config.LoadGlobalDefaults(a.fsys, path)
				if err != nil {
					return err
				}
				printDefaults(a, path, current)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&updates.RemoteHost, "remote-host", "H", "", "default remote host")
	f.StringVarP(&updates.SSHUser, "ssh-user", "u", "", "default SSH user")
	f.StringVarP(&updates.RemotePath, "remote-path", "p", "", "default remote parent directory")
	f.IntVar(&updates.SSHPort, "ssh-port", 0, "default SSH port")
	f.BoolVarP(&show, "show", "s", false, "show the current defaults")
	return cmd
}

func printDefaults(a *app, path string, g config.GlobalDefaults) {
	a.printf("Global defaults (%s):\n", path)
	if g.IsZero() {
		a.printf("  none set\n")
		return
	}

	show := func(key, value string) {
		if value != "" {
			a.printf("  %s = %s\n", key, value)
		}
	}
	show(config.KeyRemoteHost, g.RemoteHost)
	show(config.KeySSHUser, g.SSHUser)
	show(config.KeyRemotePath, g.RemotePath)
	if g.SSHPort != 0 {
		show(config.KeySSHPort, strconv.Itoa(g.SSHPort))
	}
}
