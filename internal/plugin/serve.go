package plugin

import (
	"bytes"
	"html"
	"net/http"

	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

const ServeName = "rendr-serve"

type ServePlugin struct {
	resolver *usecase.Resolver
	invoker  *usecase.Invoker
}

func NewServePlugin(resolver *usecase.Resolver, invoker *usecase.Invoker) *ServePlugin {
	return &ServePlugin{
		resolver: resolver,
		invoker:  invoker,
	}
}

func (p *ServePlugin) Name() string     { return ServeName }
func (p *ServePlugin) Apply() core.Mode { return core.ModeServe }

func (p *ServePlugin) ConfigureServer(srv Server) error {
	srv.Use(p.Middleware(srv))
	return nil
}

// Middleware answers requests that resolve to a render source and hands
// everything else to next.
func (p *ServePlugin) Middleware(srv Server) func(http.Handler) http.Handler {
	service := usecase.NewPageService(p.resolver, p.invoker, srv, nil)
	root := p.resolver.Root()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			output := service.ServePage(req.Context(), usecase.ServePageInput{
				RequestPath: req.URL.Path,
				URL:         req.URL.RequestURI(),
			})

			switch output.Action {
			case core.ActionPassThrough:
				next.ServeHTTP(w, req)

			case core.ActionRender:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(output.HTML))

			default:
				srv.ReportError(req.Context(), output.Error)
				serveError(w, output, root)
			}
		})
	}
}

func serveError(w http.ResponseWriter, output usecase.ServePageOutput, root string) {
	message := "internal error"
	if output.Error != nil {
		message = core.Diagnostic(output.Error, root)
	}

	data := core.ErrorData{Message: message}
	if output.Source.Path != "" {
		data.Path = core.NormalizeTrace(output.Source.Path, root)
	}

	var buf bytes.Buffer
	if err := core.ErrorTemplate.Execute(&buf, data); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<!doctype html><html><body><pre>" + html.EscapeString(message) + "</pre></body></html>"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(buf.Bytes())
}
