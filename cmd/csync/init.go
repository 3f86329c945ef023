package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/t3bol90/csync/config"
	"github.com/t3bol90/csync/git"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file in the current directory",
		Long: `Create a sample configuration file. Values saved with "csync configure"
are used in place of the placeholders. The file format follows the extension
of --output (.cfg/.ini, .json or .yaml/.yml).`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cwd, err := a.getwd()
			if err != nil {
				return err
			}
			path := output
			if !filepath.IsAbs(path) {
				path = filepath.Join(cwd, path)
			}

			defaults, err := config.LoadGlobalDefaults(a.fsys, a.globalPath())
			if err != nil {
				a.logger.WarnContext(ctx, "ignoring global defaults", "error", err)
				defaults = config.GlobalDefaults{}
			}

			sample := config.SampleConfig(filepath.Base(cwd), defaults)
			data, err := config.WriteSample(a.fsys, path, sample, force)
			if err != nil {
				return err
			}

			a.printf("Created %s\n\n%s\n", output, data)

			rel, err := filepath.Rel(cwd, path)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				a.logger.DebugContext(ctx, "configuration outside project, .gitignore left alone", "path", path)
			} else if added, err := git.EnsureIgnored(a.fsys, cwd, rel); err != nil {
				a.logger.WarnContext(ctx, "could not update .gitignore", "error", err)
			} else if added {
				a.printf("Added %s to %s\n", rel, git.IgnoreFile)
			}

			if sample.RemoteHost == config.PlaceholderHost {
				a.printf("Edit %s with your server details before syncing.\n", output)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringVarP(&output, "output", "o", config.DefaultFileName, "file to create")
	return cmd
}
