package main

import (
	"github.com/spf13/cobra"

	"github.com/3-lines-studio/rendr/internal/initcmd"
)

func newInitCmd(e *env) *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a new site from a starter template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return initcmd.Run(dir, template, e.output)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "js", "starter template: js or go")

	return cmd
}
