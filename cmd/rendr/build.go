package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/rendr/internal/adapters/cli"
)

func newBuildCmd(e *env) *cobra.Command {
	var (
		outDir      string
		publicDir   string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every source into static HTML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				e.cfg.Build.OutDir = outDir
			}
			if publicDir != "" {
				e.cfg.Build.PublicDir = publicDir
			}
			if concurrency > 0 {
				e.cfg.Build.Concurrency = concurrency
			}

			app, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = app.Stop() }()

			out := e.cfg.Build.OutDir
			if !filepath.IsAbs(out) {
				out = filepath.Join(app.Root(), out)
			}

			e.output.PrintHeader("rendr build")
			report := cli.NewBuildReport(e.output, out)

			_, err = app.Build(cmd.Context(), report)
			report.Render()
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory")
	cmd.Flags().StringVar(&publicDir, "public-dir", "", "directory copied verbatim into the output")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "pages rendered in parallel")

	return cmd
}
