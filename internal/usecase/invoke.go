package usecase

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/core"
)

type Invoker struct {
	loader Loader
	logger *zap.Logger
}

func NewInvoker(loader Loader, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		loader: loader,
		logger: logger,
	}
}

// Invoke loads src and runs its render entry point. Every failure, including
// a panic inside the render function, comes back as a *core.RenderError.
func (i *Invoker) Invoke(ctx context.Context, src core.RenderSource) (html string, err error) {
	if i.loader == nil {
		return "", &core.RenderError{Path: src.Path, Stage: core.StageLoad, Err: fmt.Errorf("no module loader configured")}
	}

	module, err := i.load(ctx, src.Path)
	if err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			err = &core.RenderError{
				Path:  src.Path,
				Stage: core.StageRender,
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}
		}
	}()

	rendered, err := module.Render(ctx)
	if err != nil {
		return "", &core.RenderError{Path: src.Path, Stage: core.StageRender, Err: err}
	}

	i.logger.Debug("rendered", zap.String("source", src.Path))
	return ToText(rendered), nil
}

func (i *Invoker) load(ctx context.Context, path string) (module Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &core.RenderError{
				Path:  path,
				Stage: core.StageLoad,
				Err:   fmt.Errorf("panic: %v", r),
				Stack: string(debug.Stack()),
			}
		}
	}()

	module, err = i.loader.Load(ctx, path)
	if err != nil {
		return nil, &core.RenderError{Path: path, Stage: core.StageLoad, Err: err}
	}
	if module == nil {
		return nil, &core.RenderError{Path: path, Stage: core.StageLoad, Err: core.ErrNoDefaultExport}
	}
	return module, nil
}

func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
