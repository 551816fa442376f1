// Package plugin defines the hook contract between rendr and the host
// pipelines, plus the two plugins rendr contributes: one for the development
// server and one for static builds.
package plugin

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/3-lines-studio/rendr/internal/core"
)

type Plugin interface {
	Name() string
	Apply() core.Mode
}

// Server is what a development server offers to plugins.
type Server interface {
	Use(middleware func(http.Handler) http.Handler)
	TransformHTML(ctx context.Context, url string, html string) (string, error)
	ReportError(ctx context.Context, err error)
}

type ServerConfigurer interface {
	ConfigureServer(srv Server) error
}

// Configurer contributes build inputs before anything is resolved.
type Configurer interface {
	Config(ctx context.Context, b *Build) error
}

// IDResolver claims a module id. ok is false when the plugin declines.
type IDResolver interface {
	ResolveID(ctx context.Context, b *Build, source string) (id string, ok bool, err error)
}

// ModuleLoader produces the content for a claimed id. A nil result declines.
type ModuleLoader interface {
	Load(ctx context.Context, b *Build, id string) (*LoadResult, error)
}

type LoadResult struct {
	Code string
	Map  string
}

// Build is the state of one build run. Configurers write Inputs and Virtual;
// after configuration both are only read, from any goroutine.
type Build struct {
	ID     string
	Root   string
	OutDir string

	mu      sync.RWMutex
	inputs  map[string]string
	virtual map[string]string
}

func NewBuild(root, outDir string) *Build {
	return &Build{
		ID:      uuid.NewString(),
		Root:    root,
		OutDir:  outDir,
		inputs:  make(map[string]string),
		virtual: make(map[string]string),
	}
}

func (b *Build) AddInput(name, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputs[name] = path
}

func (b *Build) Inputs() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.inputs))
	for k, v := range b.inputs {
		out[k] = v
	}
	return out
}

func (b *Build) Register(id, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.virtual[id] = path
}

func (b *Build) Lookup(id string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	path, ok := b.virtual[id]
	return path, ok
}

func (b *Build) VirtualIDs() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.virtual)
}

func Filter(plugins []Plugin, mode core.Mode) []Plugin {
	var out []Plugin
	for _, p := range plugins {
		if p.Apply() == mode {
			out = append(out, p)
		}
	}
	return out
}
