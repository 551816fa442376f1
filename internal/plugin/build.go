package plugin

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/core"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

const BuildName = "rendr-build"

// BuildPlugin registers every render source under root as a build input and
// serves its rendered HTML in place of the module source.
type BuildPlugin struct {
	root    string
	scanner *usecase.Scanner
	invoker *usecase.Invoker
	logger  *zap.Logger
}

func NewBuildPlugin(root string, scanner *usecase.Scanner, invoker *usecase.Invoker, logger *zap.Logger) *BuildPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildPlugin{
		root:    root,
		scanner: scanner,
		invoker: invoker,
		logger:  logger,
	}
}

func (p *BuildPlugin) Name() string     { return BuildName }
func (p *BuildPlugin) Apply() core.Mode { return core.ModeBuild }

func (p *BuildPlugin) Config(ctx context.Context, b *Build) error {
	suffix := p.scanner.Suffix()

	for _, src := range p.scanner.Collect(ctx, p.root, core.Unbounded) {
		name, err := core.InputName(p.root, src.Path, suffix)
		if err != nil {
			return fmt.Errorf("failed to name build input %s: %w", src.Path, err)
		}
		b.AddInput(name, src.Path)
		b.Register(core.SynthesizedID(src.Path, suffix), src.Path)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Debug("build inputs registered",
		zap.String("build", b.ID),
		zap.Int("inputs", b.VirtualIDs()),
	)
	return nil
}

func (p *BuildPlugin) ResolveID(ctx context.Context, b *Build, source string) (string, bool, error) {
	id := source
	if suffix := p.scanner.Suffix(); strings.HasSuffix(source, suffix) {
		id = core.SynthesizedID(source, suffix)
	}

	if _, ok := b.Lookup(id); !ok {
		return "", false, nil
	}
	return id, true, nil
}

func (p *BuildPlugin) Load(ctx context.Context, b *Build, id string) (*LoadResult, error) {
	path, ok := b.Lookup(id)
	if !ok {
		return nil, nil
	}

	html, err := p.invoker.Invoke(ctx, core.NewRenderSource(path, p.scanner.Suffix()))
	if err != nil {
		return nil, err
	}

	return &LoadResult{Code: html, Map: ""}, nil
}
