package core

import (
	"math"
	"path/filepath"
	"strings"
)

const (
	HTMLExt            = ".html"
	DefaultModuleExt   = ".mjs"
	DependencyCacheDir = "node_modules"
	IndexName          = "index"
)

// Unbounded disables the depth limit of a scan.
const Unbounded = math.MaxInt

type RenderSource struct {
	Path string
	Name string
}

func RenderSuffix(moduleExt string) string {
	if moduleExt == "" {
		moduleExt = DefaultModuleExt
	}
	if !strings.HasPrefix(moduleExt, ".") {
		moduleExt = "." + moduleExt
	}
	return HTMLExt + moduleExt
}

func HasRenderSuffix(name string, suffix string) bool {
	return len(name) > len(suffix) && strings.HasSuffix(name, suffix)
}

func NewRenderSource(path string, suffix string) RenderSource {
	return RenderSource{
		Path: path,
		Name: strings.TrimSuffix(path, suffix),
	}
}

// SynthesizedID is the virtual module id a build uses for a render source:
// the render suffix replaced by a plain .html extension.
func SynthesizedID(path string, suffix string) string {
	return strings.TrimSuffix(path, suffix) + HTMLExt
}

func InputName(root string, path string, suffix string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, suffix)), nil
}

// RoutePath is the request path that resolves to a render source whose
// logical name is name, index files collapsing onto their directory.
func RoutePath(root string, name string) string {
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == IndexName {
		return "/"
	}
	rel = strings.TrimSuffix(rel, "/"+IndexName)
	return "/" + rel
}
