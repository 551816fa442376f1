package usecase

import (
	"context"
	"strings"
	"testing/fstest"

	"github.com/3-lines-studio/rendr/internal/adapters/fs"
	"github.com/3-lines-studio/rendr/internal/core"
)

const testSuffix = ".html.mjs"

var siteFiles = []string{
	"index.html.mjs",
	"pages/about.html.mjs",
	"pages/about.mjs",
	"pages/blog/index.html.mjs",
	"pages/blog/post.html.mjs",
	"pages/deep/a/b/c.html.mjs",
	"pages/docs.html.mjs",
	"pages/docs/index.html.mjs",
	"node_modules/pkg/x.html.mjs",
	"pages/node_modules/y.html.mjs",
}

func newTestFS(files ...string) FileSystem {
	mapFS := fstest.MapFS{}
	for _, name := range files {
		mapFS[name] = &fstest.MapFile{Data: []byte("export default () => '" + name + "'")}
	}
	return fs.NewIOFileSystem(mapFS)
}

func newTestScanner(files ...string) *Scanner {
	return NewScanner(newTestFS(files...), testSuffix)
}

// echoLoader renders every module as "<h1>" + base name + "</h1>".
var echoLoader = LoaderFunc(func(ctx context.Context, path string) (Module, error) {
	name := strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], testSuffix)
	return RenderFunc(func(context.Context) (any, error) {
		return "<h1>" + name + "</h1>", nil
	}), nil
})

func paths(sources []core.RenderSource) []string {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		out = append(out, src.Path)
	}
	return out
}
