package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/3-lines-studio/rendr/internal/core"
)

type title string

func (t title) String() string { return "<title>" + string(t) + "</title>" }

func moduleReturning(v any, err error) Loader {
	return LoaderFunc(func(context.Context, string) (Module, error) {
		return RenderFunc(func(context.Context) (any, error) { return v, err }), nil
	})
}

func TestInvoker_Invoke(t *testing.T) {
	src := core.NewRenderSource("/pages/about.html.mjs", testSuffix)

	tests := []struct {
		name   string
		loader Loader
		want   string
	}{
		{name: "string", loader: moduleReturning("<h1>About</h1>", nil), want: "<h1>About</h1>"},
		{name: "bytes", loader: moduleReturning([]byte("<p>b</p>"), nil), want: "<p>b</p>"},
		{name: "stringer", loader: moduleReturning(title("About"), nil), want: "<title>About</title>"},
		{name: "number", loader: moduleReturning(42, nil), want: "42"},
		{name: "nil", loader: moduleReturning(nil, nil), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := NewInvoker(tt.loader, zaptest.NewLogger(t))

			got, err := invoker.Invoke(context.Background(), src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInvoker_Failures(t *testing.T) {
	src := core.NewRenderSource("/pages/about.html.mjs", testSuffix)
	cause := errors.New("boom")

	tests := []struct {
		name      string
		loader    Loader
		stage     core.RenderStage
		wantCause error
		wantStack bool
	}{
		{
			name:   "no loader",
			loader: nil,
			stage:  core.StageLoad,
		},
		{
			name: "load error",
			loader: LoaderFunc(func(context.Context, string) (Module, error) {
				return nil, cause
			}),
			stage:     core.StageLoad,
			wantCause: cause,
		},
		{
			name: "nil module",
			loader: LoaderFunc(func(context.Context, string) (Module, error) {
				return nil, nil
			}),
			stage:     core.StageLoad,
			wantCause: core.ErrNoDefaultExport,
		},
		{
			name: "load panic",
			loader: LoaderFunc(func(context.Context, string) (Module, error) {
				panic("cannot parse")
			}),
			stage:     core.StageLoad,
			wantStack: true,
		},
		{
			name:      "render error",
			loader:    moduleReturning(nil, cause),
			stage:     core.StageRender,
			wantCause: cause,
		},
		{
			name: "render panic",
			loader: LoaderFunc(func(context.Context, string) (Module, error) {
				return RenderFunc(func(context.Context) (any, error) { panic("boom") }), nil
			}),
			stage:     core.StageRender,
			wantStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := NewInvoker(tt.loader, nil)

			_, err := invoker.Invoke(context.Background(), src)

			var renderErr *core.RenderError
			if !errors.As(err, &renderErr) {
				t.Fatalf("expected RenderError, got %T %v", err, err)
			}
			if renderErr.Stage != tt.stage {
				t.Errorf("expected stage %s, got %s", tt.stage, renderErr.Stage)
			}
			if renderErr.Path != src.Path {
				t.Errorf("expected path %s, got %s", src.Path, renderErr.Path)
			}
			if tt.wantCause != nil && !errors.Is(err, tt.wantCause) {
				t.Errorf("expected %v in chain, got %v", tt.wantCause, err)
			}
			if tt.wantStack && !strings.Contains(renderErr.Stack, "goroutine") {
				t.Errorf("expected a stack trace, got %q", renderErr.Stack)
			}
		})
	}
}
