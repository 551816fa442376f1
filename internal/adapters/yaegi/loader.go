// Package yaegi loads render sources written in Go, interpreting them with
// yaegi instead of compiling them.
package yaegi

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

const (
	DefaultExt = ".go"
	EntryPoint = "Render"
)

// Loader interprets each source in a fresh interpreter, so edits are picked
// up on the next load. A source exposes one of:
//
//	func Render() string
//	func Render() (string, error)
//	func Render(ctx context.Context) (string, error)
type Loader struct {
	fs     usecase.FileSystem
	logger *zap.Logger
}

var _ usecase.Loader = (*Loader)(nil)

func NewLoader(fs usecase.FileSystem, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		fs:     fs,
		logger: logger,
	}
}

func (l *Loader) Load(ctx context.Context, path string) (usecase.Module, error) {
	src, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	pkg, err := packageName(path, src)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", path, err)
	}

	entry, err := i.Eval(pkg + "." + EntryPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s not found", core.ErrNoDefaultExport, pkg, EntryPoint)
	}

	l.logger.Debug("interpreted", zap.String("source", path), zap.String("package", pkg))

	switch fn := entry.Interface().(type) {
	case func() string:
		return usecase.RenderFunc(func(context.Context) (any, error) {
			return fn(), nil
		}), nil
	case func() (string, error):
		return usecase.RenderFunc(func(context.Context) (any, error) {
			return fn()
		}), nil
	case func(context.Context) (string, error):
		return usecase.RenderFunc(func(ctx context.Context) (any, error) {
			return fn(ctx)
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s.%s has unsupported signature %T", core.ErrNoDefaultExport, pkg, EntryPoint, fn)
	}
}

func packageName(path string, src []byte) (string, error) {
	file, err := parser.ParseFile(token.NewFileSet(), path, src, parser.PackageClauseOnly)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Name.Name, nil
}
