package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/3-lines-studio/rendr/internal/core"
)

func newTestBuildPlugin(t *testing.T) *BuildPlugin {
	scanner, _, invoker := newTestComponents()
	return NewBuildPlugin("/", scanner, invoker, zaptest.NewLogger(t))
}

func TestBuildPlugin_Contract(t *testing.T) {
	var p Plugin = newTestBuildPlugin(t)

	if p.Name() != BuildName {
		t.Errorf("expected name %s, got %s", BuildName, p.Name())
	}
	if p.Apply() != core.ModeBuild {
		t.Errorf("expected build mode, got %s", p.Apply())
	}
	for name, ok := range map[string]bool{
		"Configurer":   isA[Configurer](p),
		"IDResolver":   isA[IDResolver](p),
		"ModuleLoader": isA[ModuleLoader](p),
	} {
		if !ok {
			t.Errorf("build plugin must implement %s", name)
		}
	}
}

func isA[T any](p Plugin) bool {
	_, ok := p.(T)
	return ok
}

func TestBuildPlugin_Config(t *testing.T) {
	p := newTestBuildPlugin(t)
	b := NewBuild("/", "/dist")

	if err := p.Config(context.Background(), b); err != nil {
		t.Fatalf("config: %v", err)
	}

	want := map[string]string{
		"pages/about":      "/pages/about.html.mjs",
		"pages/blog/index": "/pages/blog/index.html.mjs",
		"pages/broken":     "/pages/broken.html.mjs",
	}
	if diff := cmp.Diff(want, b.Inputs()); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	if b.VirtualIDs() != 3 {
		t.Errorf("expected 3 virtual ids, got %d", b.VirtualIDs())
	}
	if path, ok := b.Lookup("/pages/about.html"); !ok || path != "/pages/about.html.mjs" {
		t.Errorf("expected synthesized id for about, got %q (%v)", path, ok)
	}
}

func TestBuildPlugin_ResolveID(t *testing.T) {
	p := newTestBuildPlugin(t)
	b := NewBuild("/", "/dist")
	if err := p.Config(context.Background(), b); err != nil {
		t.Fatalf("config: %v", err)
	}

	tests := []struct {
		source string
		id     string
		ok     bool
	}{
		{source: "/pages/about.html.mjs", id: "/pages/about.html", ok: true},
		{source: "/pages/about.html", id: "/pages/about.html", ok: true},
		{source: "/pages/unknown.html.mjs", ok: false},
		{source: "/pages/style.css", ok: false},
	}

	for _, tt := range tests {
		id, ok, err := p.ResolveID(context.Background(), b, tt.source)
		if err != nil {
			t.Fatalf("resolve %s: %v", tt.source, err)
		}
		if ok != tt.ok || id != tt.id {
			t.Errorf("ResolveID(%q) = (%q, %v), want (%q, %v)", tt.source, id, ok, tt.id, tt.ok)
		}
	}
}

func TestBuildPlugin_Load(t *testing.T) {
	p := newTestBuildPlugin(t)
	b := NewBuild("/", "/dist")
	if err := p.Config(context.Background(), b); err != nil {
		t.Fatalf("config: %v", err)
	}

	result, err := p.Load(context.Background(), b, "/pages/about.html")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result == nil || result.Code != "<h1>About</h1>" || result.Map != "" {
		t.Errorf("expected exactly the rendered html, got %+v", result)
	}

	result, err = p.Load(context.Background(), b, "/pages/other.html")
	if err != nil || result != nil {
		t.Errorf("expected unknown ids to be declined, got %+v, %v", result, err)
	}

	_, err = p.Load(context.Background(), b, "/pages/broken.html")
	var renderErr *core.RenderError
	if !errors.As(err, &renderErr) {
		t.Errorf("expected RenderError for a panicking page, got %v", err)
	}
}

func TestBuild_InputsAreIsolated(t *testing.T) {
	a := NewBuild("/", "/dist")
	b := NewBuild("/", "/dist")

	a.AddInput("index", "/index.html.mjs")
	a.Register("/index.html", "/index.html.mjs")

	if a.ID == b.ID {
		t.Error("builds must get distinct ids")
	}
	if len(b.Inputs()) != 0 || b.VirtualIDs() != 0 {
		t.Error("state leaked between builds")
	}

	inputs := a.Inputs()
	inputs["other"] = "x"
	if len(a.Inputs()) != 1 {
		t.Error("Inputs must return a copy")
	}
}

func TestFilter(t *testing.T) {
	scanner, resolver, invoker := newTestComponents()
	plugins := []Plugin{
		NewServePlugin(resolver, invoker),
		NewBuildPlugin("/", scanner, invoker, nil),
	}

	serve := Filter(plugins, core.ModeServe)
	if len(serve) != 1 || serve[0].Name() != ServeName {
		t.Errorf("unexpected serve plugins %v", serve)
	}
	build := Filter(plugins, core.ModeBuild)
	if len(build) != 1 || build[0].Name() != BuildName {
		t.Errorf("unexpected build plugins %v", build)
	}
}
