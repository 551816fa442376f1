package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	var (
		addr     string
		noReload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.Serve.Addr = addr
			}
			if noReload {
				e.cfg.Serve.Reload = false
			}

			app, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = app.Stop() }()

			e.output.PrintHeader("rendr serve")
			e.output.PrintStep("", "root    %s", app.Root())
			e.output.PrintStep("", "address %s", e.cfg.Serve.Addr)

			return app.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "disable live reload")

	return cmd
}
