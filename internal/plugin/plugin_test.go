package plugin

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing/fstest"

	"github.com/3-lines-studio/rendr/internal/adapters/fs"
	"github.com/3-lines-studio/rendr/internal/usecase"
)

const testSuffix = ".html.mjs"

var pages = map[string]string{
	"pages/about.html.mjs":      "<h1>About</h1>",
	"pages/blog/index.html.mjs": "<h1>Blog</h1>",
	"pages/broken.html.mjs":     "panic",
	"pages/style.css":           "h1{}",
}

// fakeLoader renders each source as the content registered for it in pages;
// "panic" makes the render function panic.
var fakeLoader = usecase.LoaderFunc(func(ctx context.Context, path string) (usecase.Module, error) {
	content, ok := pages[strings.TrimPrefix(path, "/")]
	if !ok {
		return nil, nil
	}
	return usecase.RenderFunc(func(context.Context) (any, error) {
		if content == "panic" {
			panic("render exploded")
		}
		return content, nil
	}), nil
})

func newTestComponents() (*usecase.Scanner, *usecase.Resolver, *usecase.Invoker) {
	mapFS := fstest.MapFS{}
	for name, content := range pages {
		mapFS[name] = &fstest.MapFile{Data: []byte(content)}
	}
	scanner := usecase.NewScanner(fs.NewIOFileSystem(mapFS), testSuffix)
	return scanner, usecase.NewResolver(scanner, "/"), usecase.NewInvoker(fakeLoader, nil)
}

type fakeServer struct {
	mu          sync.Mutex
	middlewares []func(http.Handler) http.Handler
	reported    []error
	suffix      string
}

func (s *fakeServer) Use(mw func(http.Handler) http.Handler) {
	s.middlewares = append(s.middlewares, mw)
}

func (s *fakeServer) TransformHTML(ctx context.Context, url string, html string) (string, error) {
	return html + s.suffix, nil
}

func (s *fakeServer) ReportError(ctx context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reported = append(s.reported, err)
}

func (s *fakeServer) handler(next http.Handler) http.Handler {
	h := next
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		h = s.middlewares[i](h)
	}
	return h
}

var _ Server = (*fakeServer)(nil)
