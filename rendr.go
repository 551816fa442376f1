// Package rendr serves and builds pages from render sources: files named
// <name>.html.<ext> whose module exports a function returning HTML.
package rendr

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/adapters/cli"
	"github.com/3-lines-studio/rendr/internal/adapters/fs"
	devhttp "github.com/3-lines-studio/rendr/internal/adapters/http"
	"github.com/3-lines-studio/rendr/internal/adapters/process"
	"github.com/3-lines-studio/rendr/internal/adapters/yaegi"
	"github.com/3-lines-studio/rendr/internal/build"
	"github.com/3-lines-studio/rendr/internal/config"
	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/plugin"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

type (
	Loader       = usecase.Loader
	Module       = usecase.Module
	LoaderFunc   = usecase.LoaderFunc
	RenderFunc   = usecase.RenderFunc
	FileSystem   = usecase.FileSystem
	Plugin       = plugin.Plugin
	RenderSource = core.RenderSource
	RenderError  = core.RenderError
	Config       = config.Config
	BuildResult  = build.Result
)

type Route struct {
	Path   string
	Source string
}

type Option func(*App)

func WithConfig(cfg *Config) Option {
	return func(a *App) {
		if cfg != nil {
			a.cfg = cfg
		}
	}
}

func WithRoot(root string) Option {
	return func(a *App) {
		a.cfg.Root = root
	}
}

// WithLoader replaces the loader chosen by the configuration.
func WithLoader(loader Loader) Option {
	return func(a *App) {
		a.custom = loader
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithFileSystem(fsys FileSystem) Option {
	return func(a *App) {
		a.fs = fsys
	}
}

type App struct {
	cfg    *Config
	root   string
	fs     FileSystem
	logger *zap.Logger
	custom Loader

	loader   *lazyLoader
	scanner  *usecase.Scanner
	resolver *usecase.Resolver
	invoker  *usecase.Invoker
	serve    *plugin.ServePlugin
	build    *plugin.BuildPlugin
}

func New(opts ...Option) (*App, error) {
	a := &App{
		cfg:    config.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	root, err := filepath.Abs(a.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", a.cfg.Root, err)
	}
	a.root = root

	if a.fs == nil {
		a.fs = fs.NewOSFileSystem()
	}

	a.loader = &lazyLoader{start: a.startLoader}
	a.scanner = usecase.NewScanner(a.fs, a.cfg.Suffix(),
		usecase.WithExcludeDir(a.cfg.ExcludeDir),
		usecase.WithScanLogger(a.logger.Named("scan")),
	)
	a.resolver = usecase.NewResolver(a.scanner, a.root)
	a.invoker = usecase.NewInvoker(a.loader, a.logger.Named("invoke"))
	a.serve = plugin.NewServePlugin(a.resolver, a.invoker)
	a.build = plugin.NewBuildPlugin(a.root, a.scanner, a.invoker, a.logger.Named("build"))

	return a, nil
}

func (a *App) Root() string {
	return a.root
}

func (a *App) Config() *Config {
	return a.cfg
}

// Plugins returns the serve plugin followed by the build plugin.
func (a *App) Plugins() []Plugin {
	return []Plugin{a.serve, a.build}
}

func (a *App) Resolve(ctx context.Context, requestPath string) (RenderSource, bool) {
	return a.resolver.Resolve(ctx, requestPath)
}

func (a *App) Render(ctx context.Context, src RenderSource) (string, error) {
	return a.invoker.Invoke(ctx, src)
}

// Routes lists every render source under root with the request path that
// serves it, in scan order.
func (a *App) Routes(ctx context.Context) []Route {
	sources := a.scanner.Collect(ctx, a.root, core.Unbounded)
	routes := make([]Route, 0, len(sources))
	for _, src := range sources {
		routes = append(routes, Route{
			Path:   core.RoutePath(a.root, src.Name),
			Source: src.Path,
		})
	}
	return routes
}

// Wrap puts render source handling in front of next. Requests that do not
// resolve reach next untouched.
func (a *App) Wrap(next http.Handler) http.Handler {
	srv := devhttp.NewServer(devhttp.ServerConfig{
		Root:   a.root,
		Logger: a.logger.Named("http"),
	})
	return a.serve.Middleware(srv)(next)
}

func (a *App) newServer() (*devhttp.Server, error) {
	srv := devhttp.NewServer(devhttp.ServerConfig{
		Root:   a.root,
		Addr:   a.cfg.Serve.Addr,
		Reload: a.cfg.Serve.Reload,
		Skip:   []string{a.cfg.ExcludeDir, a.cfg.Build.OutDir},
		Logger: a.logger.Named("http"),
	})
	if err := srv.Configure(a.Plugins()); err != nil {
		return nil, err
	}
	return srv, nil
}

// Handler is the full development server handler: plugin middlewares, live
// reload and a file server over root.
func (a *App) Handler() (http.Handler, error) {
	srv, err := a.newServer()
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}

// Serve runs the development server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv, err := a.newServer()
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}

// Build renders every render source into the configured output directory.
// report may be nil.
func (a *App) Build(ctx context.Context, report *cli.BuildReport) (*BuildResult, error) {
	engine := build.NewEngine(a.root, a.fs, report, a.logger.Named("build"))
	return engine.Run(ctx, a.Plugins(), build.Input{
		OutDir:      a.cfg.Build.OutDir,
		PublicDir:   a.cfg.Build.PublicDir,
		Concurrency: a.cfg.Build.Concurrency,
	})
}

func (a *App) Stop() error {
	return a.loader.stop()
}

func (a *App) startLoader(ctx context.Context) (Loader, func() error, error) {
	if a.custom != nil {
		return a.custom, nil, nil
	}

	switch a.cfg.Loader {
	case config.LoaderGo:
		return yaegi.NewLoader(a.fs, a.logger.Named("yaegi")), nil, nil
	case config.LoaderBun, config.LoaderNode:
		l, err := process.NewLoader(ctx, a.cfg.Loader, a.root, a.logger.Named(a.cfg.Loader))
		if err != nil {
			return nil, nil, err
		}
		return l, l.Stop, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownLoader, a.cfg.Loader)
	}
}

// lazyLoader defers starting a module runtime until the first render, so
// commands that only scan never spawn one.
type lazyLoader struct {
	start func(ctx context.Context) (Loader, func() error, error)

	mu      sync.Mutex
	loader  Loader
	cleanup func() error
}

func (l *lazyLoader) get(ctx context.Context) (Loader, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loader != nil {
		return l.loader, nil
	}

	loader, cleanup, err := l.start(context.WithoutCancel(ctx))
	if err != nil {
		return nil, err
	}
	l.loader = loader
	l.cleanup = cleanup
	return loader, nil
}

func (l *lazyLoader) Load(ctx context.Context, path string) (Module, error) {
	loader, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, path)
}

func (l *lazyLoader) stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cleanup == nil {
		return nil
	}
	err := l.cleanup()
	l.loader = nil
	l.cleanup = nil
	return err
}
