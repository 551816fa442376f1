package usecase

import (
	"context"

	"github.com/3-lines-studio/rendr/internal/adapters/fs"
)

// Module is a loaded render source. Render runs its render entry point and
// returns the produced content.
type Module interface {
	Render(ctx context.Context) (any, error)
}

// Loader turns a render source path into a Module.
type Loader interface {
	Load(ctx context.Context, path string) (Module, error)
}

type LoaderFunc func(ctx context.Context, path string) (Module, error)

func (f LoaderFunc) Load(ctx context.Context, path string) (Module, error) {
	return f(ctx, path)
}

type RenderFunc func(ctx context.Context) (any, error)

func (f RenderFunc) Render(ctx context.Context) (any, error) {
	return f(ctx)
}

type FileSystem = fs.FileSystem
