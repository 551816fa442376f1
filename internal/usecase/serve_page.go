package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/3-lines-studio/rendr/internal/core"
)

// Transformer post-processes rendered HTML before it is sent, e.g. to add
// development instrumentation.
type Transformer interface {
	TransformHTML(ctx context.Context, url string, html string) (string, error)
}

type ServePageInput struct {
	RequestPath string
	URL         string
}

type ServePageOutput struct {
	Action core.PageAction
	Source core.RenderSource
	HTML   string
	Error  error
}

type PageService struct {
	resolver    *Resolver
	invoker     *Invoker
	transformer Transformer
	logger      *zap.Logger
}

func NewPageService(resolver *Resolver, invoker *Invoker, transformer Transformer, logger *zap.Logger) *PageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageService{
		resolver:    resolver,
		invoker:     invoker,
		transformer: transformer,
		logger:      logger,
	}
}

func (s *PageService) ServePage(ctx context.Context, input ServePageInput) (out ServePageOutput) {
	defer func() {
		if r := recover(); r != nil {
			out = ServePageOutput{
				Action: core.ActionError,
				Source: out.Source,
				Error:  fmt.Errorf("panic while serving %s: %v", input.RequestPath, r),
			}
		}
	}()

	src, matched := s.resolver.Resolve(ctx, input.RequestPath)
	decision := core.DecidePageAction(src, matched)

	switch decision.Action {
	case core.ActionPassThrough:
		return ServePageOutput{Action: core.ActionPassThrough}

	case core.ActionRender:
		s.logger.Debug("route matched",
			zap.String("path", input.RequestPath),
			zap.String("source", decision.Source.Path),
		)
		return s.render(ctx, input, decision.Source)

	default:
		return ServePageOutput{
			Action: core.ActionError,
			Error:  fmt.Errorf("unknown page action %v", decision.Action),
		}
	}
}

func (s *PageService) render(ctx context.Context, input ServePageInput, src core.RenderSource) ServePageOutput {
	html, err := s.invoker.Invoke(ctx, src)
	if err != nil {
		return ServePageOutput{Action: core.ActionError, Source: src, Error: err}
	}

	if s.transformer != nil {
		url := input.URL
		if url == "" {
			url = input.RequestPath
		}
		html, err = s.transformer.TransformHTML(ctx, url, html)
		if err != nil {
			return ServePageOutput{
				Action: core.ActionError,
				Source: src,
				Error:  fmt.Errorf("failed to transform %s: %w", src.Path, err),
			}
		}
	}

	return ServePageOutput{Action: core.ActionRender, Source: src, HTML: html}
}
