package main

import (
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the csync version",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.printf("csync %s\n", version)
		},
	}
}
