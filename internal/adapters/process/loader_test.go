package process

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3-lines-studio/rendr/internal/core"
)

func runtimeAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func availableRuntime(t *testing.T) string {
	t.Helper()
	for _, name := range []string{RuntimeBun, RuntimeNode} {
		if runtimeAvailable(name) {
			return name
		}
	}
	t.Skip("neither bun nor node available, skipping process loader test")
	return ""
}

func newTestLoader(t *testing.T, dir string) *Loader {
	t.Helper()
	loader, err := NewLoader(context.Background(), availableRuntime(t), dir, nil)
	if err != nil {
		t.Fatalf("failed to start loader: %v", err)
	}
	t.Cleanup(func() { _ = loader.Stop() })
	return loader
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		runtime string
		name    string
		wantErr bool
	}{
		{runtime: RuntimeBun, name: "bun"},
		{runtime: RuntimeNode, name: "node"},
		{runtime: "deno", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.runtime, func(t *testing.T) {
			name, args, err := command(tt.runtime)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRuntime) {
					t.Fatalf("expected ErrUnknownRuntime, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.name {
				t.Errorf("expected %q, got %q", tt.name, name)
			}
			if args[len(args)-1] != "-" {
				t.Errorf("expected script on stdin, got args %v", args)
			}
		})
	}
}

func TestLoader_Render(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "about.html.mjs")
	writeFile(t, path, `export default () => "<h1>About</h1>";`)

	loader := newTestLoader(t, dir)
	ctx := context.Background()

	mod, err := loader.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	out, err := mod.Render(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<h1>About</h1>" {
		t.Errorf("expected <h1>About</h1>, got %q", out)
	}
}

func TestLoader_AsyncRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html.mjs")
	writeFile(t, path, `export default async () => { await Promise.resolve(); return "<p>async</p>"; };`)

	loader := newTestLoader(t, dir)
	ctx := context.Background()

	mod, err := loader.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, err := mod.Render(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<p>async</p>" {
		t.Errorf("expected <p>async</p>, got %q", out)
	}
}

func TestLoader_NoDefaultExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.html.mjs")
	writeFile(t, path, `export const title = "nope";`)

	loader := newTestLoader(t, dir)

	_, err := loader.Load(context.Background(), path)
	if !errors.Is(err, core.ErrNoDefaultExport) {
		t.Fatalf("expected ErrNoDefaultExport, got %v", err)
	}
}

func TestLoader_ThrowKeepsStack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "throws.html.mjs")
	writeFile(t, path, `export default () => { throw new Error("kaboom"); };`)

	loader := newTestLoader(t, dir)
	ctx := context.Background()

	mod, err := loader.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err = mod.Render(ctx)
	var scriptErr *core.ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected ScriptError, got %T %v", err, err)
	}
	if scriptErr.Message != "kaboom" {
		t.Errorf("expected message kaboom, got %q", scriptErr.Message)
	}
	if !strings.Contains(scriptErr.Stack, "throws.html.mjs") {
		t.Errorf("expected stack to reference the module, got %q", scriptErr.Stack)
	}
}

func TestLoader_ReloadsEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html.mjs")
	writeFile(t, path, `export default () => "one";`)

	loader := newTestLoader(t, dir)
	ctx := context.Background()

	if _, err := loader.Load(ctx, path); err != nil {
		t.Fatalf("load: %v", err)
	}

	writeFile(t, path, `export default () => "two";`)

	mod, err := loader.Load(ctx, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	out, err := mod.Render(ctx)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "two" {
		t.Errorf("expected edited output two, got %q", out)
	}
}

func TestLoader_ReusesUnchangedModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counter.html.mjs")
	writeFile(t, path, `let n = 0; export default () => String(++n);`)

	loader := newTestLoader(t, dir)
	ctx := context.Background()

	var outs []string
	for range 2 {
		mod, err := loader.Load(ctx, path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		out, err := mod.Render(ctx)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		outs = append(outs, out.(string))
	}

	if outs[0] != "1" || outs[1] != "2" {
		t.Errorf("expected the cached module instance to be reused, got %v", outs)
	}
}
