package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr"
	"github.com/3-lines-studio/rendr/internal/adapters/cli"
	"github.com/3-lines-studio/rendr/internal/config"
	"github.com/3-lines-studio/rendr/internal/logging"
)

// env is what every subcommand gets once the root command has loaded the
// config and built the logger.
type env struct {
	configPath string
	root       string
	loader     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	output *cli.Output
}

func newRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:   "rendr",
		Short: "Serve and build pages from *.html.<ext> render sources",
		Long: `rendr maps request paths onto render sources: modules named
<name>.html.<ext> whose render function returns the page HTML.

  rendr serve    development server with live reload
  rendr build    render every source into static HTML
  rendr routes   list render sources and the paths serving them
  rendr resolve  show which source serves a path
  rendr init     scaffold a new site`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&e.configPath, "config", "c", config.DefaultFile, "config file")
	flags.StringVarP(&e.root, "root", "r", "", "directory holding render sources")
	flags.StringVar(&e.loader, "loader", "", "module loader: bun, node or go")
	flags.BoolVarP(&e.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newServeCmd(e),
		newBuildCmd(e),
		newRoutesCmd(e),
		newResolveCmd(e),
		newInitCmd(e),
	)

	return cmd
}

func (e *env) setup(cmd *cobra.Command) error {
	cfg, err := config.Read(e.configPath)
	if err != nil {
		return err
	}

	if e.root != "" {
		cfg.Root = e.root
	}
	if e.loader != "" {
		cfg.Loader = e.loader
	}
	if e.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	e.cfg = cfg
	e.logger = logger
	if cmd.OutOrStdout() == os.Stdout {
		e.output = cli.NewOutput()
	} else {
		e.output = cli.NewOutputTo(cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	return nil
}

func (e *env) app() (*rendr.App, error) {
	return rendr.New(rendr.WithConfig(e.cfg), rendr.WithLogger(e.logger))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
