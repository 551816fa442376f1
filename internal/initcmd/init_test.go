package initcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3-lines-studio/rendr/internal/adapters/cli"
	"github.com/3-lines-studio/rendr/internal/config"
)

func newOutput() (*cli.Output, *bytes.Buffer) {
	var buf bytes.Buffer
	return cli.NewOutputTo(&buf, &buf), &buf
}

func TestRun_JS(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "blog")
	output, buf := newOutput()

	if err := Run(projectDir, "js", output); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	expectedFiles := []string{
		"rendr.yaml",
		".gitignore",
		"index.html.mjs",
		"pages/about.html.mjs",
		"public/robots.txt",
	}
	for _, file := range expectedFiles {
		if _, err := os.Stat(filepath.Join(projectDir, file)); os.IsNotExist(err) {
			t.Errorf("Expected file %s to be created, but it doesn't exist", file)
		}
	}

	cfg, err := config.Load(filepath.Join(projectDir, "rendr.yaml"))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Loader != config.LoaderBun {
		t.Errorf("expected loader %q, got %q", config.LoaderBun, cfg.Loader)
	}

	content, err := os.ReadFile(filepath.Join(projectDir, "rendr.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "# blog") {
		t.Errorf("expected project name in config header, got:\n%s", content)
	}

	if !strings.Contains(buf.String(), "Created 5 files") {
		t.Errorf("expected summary in output, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "rendr serve") {
		t.Errorf("expected next steps in output, got:\n%s", buf.String())
	}
}

func TestRun_Go(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "site")
	output, _ := newOutput()

	if err := Run(projectDir, "go", output); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, file := range []string{"index.html.go", "pages/about.html.go"} {
		if _, err := os.Stat(filepath.Join(projectDir, file)); err != nil {
			t.Errorf("expected %s: %v", file, err)
		}
	}

	cfg, err := config.Load(filepath.Join(projectDir, "rendr.yaml"))
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Loader != config.LoaderGo {
		t.Errorf("expected loader %q, got %q", config.LoaderGo, cfg.Loader)
	}
}

func TestRun_NonEmptyDir(t *testing.T) {
	projectDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(projectDir, "existing.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	output, _ := newOutput()
	err := Run(projectDir, "js", output)
	if err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Errorf("expected non-empty directory error, got %v", err)
	}
}

func TestRun_InvalidTemplate(t *testing.T) {
	output, _ := newOutput()
	err := Run(filepath.Join(t.TempDir(), "app"), "svelte", output)
	if err == nil || !strings.Contains(err.Error(), "invalid template") {
		t.Errorf("expected invalid template error, got %v", err)
	}
}
