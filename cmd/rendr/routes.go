package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/rendr/internal/core"
)

func newRoutesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List render sources and the paths serving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.app()
			if err != nil {
				return err
			}

			routes := app.Routes(cmd.Context())
			if len(routes) == 0 {
				e.output.PrintWarning("no render sources under %s", app.Root())
				return nil
			}

			w := tabwriter.NewWriter(e.output.Writer(), 0, 4, 2, ' ', 0)
			for _, route := range routes {
				fmt.Fprintf(w, "%s\t%s\n", route.Path, relTo(app.Root(), route.Source))
			}
			return w.Flush()
		},
	}
}

func newResolveCmd(e *env) *cobra.Command {
	var render bool

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show which render source serves a request path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = app.Stop() }()

			if err := core.ValidateRoutePath(args[0]); err != nil {
				return fmt.Errorf("invalid path %q: %w", args[0], err)
			}
			requestPath := core.NormalizePath(args[0])

			src, ok := app.Resolve(cmd.Context(), requestPath)
			if !ok {
				e.output.PrintWarning("%s: no render source, passed through", requestPath)
				return nil
			}

			if !render {
				e.output.PrintSuccess("%s -> %s", requestPath, relTo(app.Root(), src.Path))
				return nil
			}

			html, err := app.Render(cmd.Context(), src)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.output.Writer(), html)
			return nil
		},
	}

	cmd.Flags().BoolVar(&render, "render", false, "print the rendered HTML")

	return cmd
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
