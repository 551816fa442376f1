// Package http hosts the development server that plugins attach to.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/adapters/fs"
	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/plugin"
)

const shutdownTimeout = 5 * time.Second

type ServerConfig struct {
	Root   string
	Addr   string
	Reload bool
	// Skip lists extra directory names the watcher ignores.
	Skip   []string
	Logger *zap.Logger
}

// Server is a chi based development server. Middlewares registered through
// Use run ahead of the static file fallback over Root.
type Server struct {
	root   string
	addr   string
	skip   []string
	reload *Reload
	logger *zap.Logger

	mu          sync.Mutex
	middlewares []func(http.Handler) http.Handler
	handler     http.Handler
}

var _ plugin.Server = (*Server)(nil)

func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		root:   cfg.Root,
		addr:   cfg.Addr,
		skip:   cfg.Skip,
		logger: logger,
	}
	if cfg.Reload {
		s.reload = NewReload()
	}
	return s
}

func (s *Server) Use(mw func(http.Handler) http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler != nil {
		s.logger.Warn("middleware registered after the router was built; ignoring")
		return
	}
	s.middlewares = append(s.middlewares, mw)
}

func (s *Server) TransformHTML(ctx context.Context, url string, html string) (string, error) {
	if s.reload == nil {
		return html, nil
	}
	return core.InjectScript(html, core.ReloadMarker, core.ReloadScript(ReloadPath)), nil
}

func (s *Server) ReportError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	s.logger.Error("render failed",
		zap.String("request_id", middleware.GetReqID(ctx)),
		zap.String("diagnostic", core.Diagnostic(err, s.root)),
	)
}

// Configure hands the server to every serve plugin that wants it.
func (s *Server) Configure(plugins []plugin.Plugin) error {
	for _, p := range plugin.Filter(plugins, core.ModeServe) {
		configurer, ok := p.(plugin.ServerConfigurer)
		if !ok {
			continue
		}
		if err := configurer.ConfigureServer(s); err != nil {
			return fmt.Errorf("%s configure server: %w", p.Name(), err)
		}
	}
	return nil
}

// Handler builds the router on first use. chi needs every middleware before
// the first route, so later Use calls are dropped.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler != nil {
		return s.handler
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.middlewares...)

	if s.reload != nil {
		r.Get(ReloadPath, s.reload.ServeHTTP)
	}

	files := http.FileServer(http.Dir(s.root))
	r.NotFound(files.ServeHTTP)
	r.MethodNotAllowed(files.ServeHTTP)

	s.handler = r
	return s.handler
}

// Start serves until ctx is cancelled. With reload enabled, changes under the
// root are pushed to connected browsers.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.reload != nil {
		watcher, err := fs.NewWatcher(s.root, s.onChange, s.logger, s.skip...)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			_ = watcher.Close()
			_ = ln.Close()
			return fmt.Errorf("failed to watch %s: %w", s.root, err)
		}
		defer watcher.Close()
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("serving", zap.String("addr", ln.Addr().String()), zap.String("root", s.root))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) onChange(path string) {
	s.logger.Debug("change detected", zap.String("path", path))
	s.reload.Notify()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		s.logger.Debug("request",
			zap.String("request_id", middleware.GetReqID(req.Context())),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
