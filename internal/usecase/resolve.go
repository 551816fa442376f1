package usecase

import (
	"context"
	"path/filepath"

	"github.com/3-lines-studio/rendr/internal/core"
)

// ResolveDepth covers the target's directory and one nested level, which is
// where grouped index files live.
const ResolveDepth = 2

type Resolver struct {
	scanner *Scanner
	root    string
}

func NewResolver(scanner *Scanner, root string) *Resolver {
	return &Resolver{
		scanner: scanner,
		root:    root,
	}
}

func (r *Resolver) Root() string {
	return r.root
}

// Resolve finds the render source serving requestPath. A source whose
// logical name is the target itself wins over target/index; among equal
// candidates the first one in scan order is used.
func (r *Resolver) Resolve(ctx context.Context, requestPath string) (core.RenderSource, bool) {
	target := core.TargetPath(r.root, requestPath)
	index := core.IndexPath(target)

	var (
		fallback core.RenderSource
		found    bool
	)

	for src := range r.scanner.All(filepath.Dir(target), ResolveDepth) {
		if ctx.Err() != nil {
			break
		}
		if src.Name == target {
			return src, true
		}
		if !found && src.Name == index {
			fallback = src
			found = true
		}
	}

	return fallback, found
}
