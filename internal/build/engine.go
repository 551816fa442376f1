// Package build is the static build host: it drives build plugins through
// configuration, id resolution and loading, then writes every rendered page
// to the output directory.
package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/rendr/internal/adapters/cli"
	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/plugin"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

var ErrNoInputs = errors.New("no render sources found")

type Input struct {
	OutDir      string
	PublicDir   string
	Concurrency int
}

type Result struct {
	BuildID     string
	Manifest    *core.Manifest
	Outputs     []string
	PublicFiles int
}

type dirCopier interface {
	CopyDir(src, dst string) (int, error)
}

type Engine struct {
	root   string
	fs     usecase.FileSystem
	report *cli.BuildReport
	logger *zap.Logger
}

func NewEngine(root string, fs usecase.FileSystem, report *cli.BuildReport, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		root:   root,
		fs:     fs,
		report: report,
		logger: logger,
	}
}

type page struct {
	name   string
	source string
}

func (e *Engine) Run(ctx context.Context, plugins []plugin.Plugin, input Input) (*Result, error) {
	plugins = plugin.Filter(plugins, core.ModeBuild)

	outDir := input.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(e.root, outDir)
	}

	b := plugin.NewBuild(e.root, outDir)
	logger := e.logger.With(zap.String("build", b.ID))

	stepConfig := e.startStep("Collecting render sources")
	for _, p := range plugins {
		configurer, ok := p.(plugin.Configurer)
		if !ok {
			continue
		}
		if err := configurer.Config(ctx, b); err != nil {
			e.endStep(stepConfig, false, err.Error())
			return nil, fmt.Errorf("%s config: %w", p.Name(), err)
		}
	}

	inputs := b.Inputs()
	if e.report != nil {
		e.report.SetPageCount(len(inputs))
	}
	if len(inputs) == 0 {
		e.endStep(stepConfig, false, ErrNoInputs.Error())
		return nil, fmt.Errorf("%w under %s", ErrNoInputs, e.root)
	}
	e.endStep(stepConfig, true, "")

	stepDirs := e.startStep("Creating output directory")
	if err := e.fs.MkdirAll(outDir, 0755); err != nil {
		e.endStep(stepDirs, false, err.Error())
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	e.endStep(stepDirs, true, "")

	pages := make([]page, 0, len(inputs))
	for name, source := range inputs {
		pages = append(pages, page{name: name, source: source})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].name < pages[j].name })

	manifest := core.NewManifest(b.ID)
	outputs := make([]string, len(pages))
	var mu sync.Mutex

	limit := input.Concurrency
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	stepRender := e.startStep("Rendering pages")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, pg := range pages {
		g.Go(func() error {
			entry, outPath, err := e.emit(gctx, plugins, b, pg)
			if err != nil {
				if e.report != nil {
					e.report.AddError(pg.name, "Failed to render page", []string{core.Diagnostic(err, e.root)})
				}
				return fmt.Errorf("%s: %w", pg.name, err)
			}

			mu.Lock()
			manifest.Entries[pg.name] = entry
			mu.Unlock()
			outputs[i] = outPath
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.endStep(stepRender, false, err.Error())
		return nil, err
	}
	e.endStep(stepRender, true, "")

	for _, out := range outputs {
		if e.report != nil {
			e.report.AddOutput(relOrAbs(outDir, out))
		}
	}

	result := &Result{
		BuildID:  b.ID,
		Manifest: manifest,
		Outputs:  outputs,
	}

	if input.PublicDir != "" {
		publicDir := input.PublicDir
		if !filepath.IsAbs(publicDir) {
			publicDir = filepath.Join(e.root, publicDir)
		}
		result.PublicFiles = e.copyPublic(publicDir, outDir)
	}

	stepManifest := e.startStep("Writing manifest")
	data, err := manifest.Marshal()
	if err == nil {
		err = e.fs.WriteFile(filepath.Join(outDir, core.ManifestFile), data, 0644)
	}
	if err != nil {
		e.endStep(stepManifest, false, err.Error())
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	e.endStep(stepManifest, true, "")

	logger.Info("build complete",
		zap.Int("pages", len(outputs)),
		zap.Int("public_files", result.PublicFiles),
		zap.String("out_dir", outDir),
	)

	return result, nil
}

func (e *Engine) emit(ctx context.Context, plugins []plugin.Plugin, b *plugin.Build, pg page) (core.ManifestEntry, string, error) {
	id, err := e.resolveID(ctx, plugins, b, pg.source)
	if err != nil {
		return core.ManifestEntry{}, "", err
	}

	code, err := e.load(ctx, plugins, b, id)
	if err != nil {
		return core.ManifestEntry{}, "", err
	}

	outPath := filepath.Join(b.OutDir, filepath.FromSlash(pg.name)+outputExt(id))
	if err := e.fs.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return core.ManifestEntry{}, "", fmt.Errorf("failed to create %s: %w", filepath.Dir(outPath), err)
	}
	if err := e.fs.WriteFile(outPath, []byte(code), 0644); err != nil {
		return core.ManifestEntry{}, "", fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return core.ManifestEntry{
		Source: relOrAbs(e.root, pg.source),
		HTML:   relOrAbs(b.OutDir, outPath),
		Hash:   core.HashContent([]byte(code)),
	}, outPath, nil
}

// resolveID asks each plugin in turn; when none claims the source it is used
// as its own id.
func (e *Engine) resolveID(ctx context.Context, plugins []plugin.Plugin, b *plugin.Build, source string) (string, error) {
	for _, p := range plugins {
		resolver, ok := p.(plugin.IDResolver)
		if !ok {
			continue
		}
		id, claimed, err := resolver.ResolveID(ctx, b, source)
		if err != nil {
			return "", fmt.Errorf("%s resolve %s: %w", p.Name(), source, err)
		}
		if claimed {
			return id, nil
		}
	}
	return source, nil
}

// load falls back to the raw file when no plugin produces content for id.
func (e *Engine) load(ctx context.Context, plugins []plugin.Plugin, b *plugin.Build, id string) (string, error) {
	for _, p := range plugins {
		loader, ok := p.(plugin.ModuleLoader)
		if !ok {
			continue
		}
		result, err := loader.Load(ctx, b, id)
		if err != nil {
			return "", err
		}
		if result != nil {
			return result.Code, nil
		}
	}

	data, err := e.fs.ReadFile(id)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", id, err)
	}
	return string(data), nil
}

func (e *Engine) copyPublic(publicDir, outDir string) int {
	copier, ok := e.fs.(dirCopier)
	if !ok {
		return 0
	}

	step := e.startStep("Copying public assets")
	copied, err := copier.CopyDir(publicDir, outDir)
	if err != nil {
		if e.report != nil {
			e.report.AddWarning("Public assets", "Failed to copy public assets", []string{err.Error()})
		}
		e.logger.Warn("copy public assets", zap.String("dir", publicDir), zap.Error(err))
	}
	e.endStep(step, err == nil, "")
	return copied
}

func (e *Engine) startStep(name string) *cli.BuildStep {
	if e.report == nil {
		return &cli.BuildStep{Name: name}
	}
	return e.report.StartStep(name)
}

func (e *Engine) endStep(step *cli.BuildStep, success bool, err string) {
	if e.report == nil {
		return
	}
	e.report.EndStep(step, success, err)
}

func outputExt(id string) string {
	if strings.HasSuffix(id, core.HTMLExt) {
		return core.HTMLExt
	}
	return filepath.Ext(id)
}

func relOrAbs(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
