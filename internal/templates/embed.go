package templates

import (
	"embed"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:js
var jsFS embed.FS

//go:embed all:go
var goFS embed.FS

var validTemplates = []string{"js", "go"}

var ErrInvalidTemplate = errors.New("invalid template name")

func Names() []string {
	return append([]string(nil), validTemplates...)
}

func GetTemplate(name string) (fs.FS, error) {
	switch name {
	case "js":
		return fs.Sub(jsFS, "js")
	case "go":
		return fs.Sub(goFS, "go")
	default:
		return nil, ErrInvalidTemplate
	}
}

type TemplateData struct {
	Name   string
	Loader string
}

// ProcessFilename strips the .tmpl suffix and restores dotfiles, which are
// stored without their leading dot.
func ProcessFilename(filename string) (string, bool) {
	name, isTemplate := strings.CutSuffix(filename, ".tmpl")
	if path.Base(name) == "gitignore" {
		name = path.Join(path.Dir(name), ".gitignore")
	}
	return name, isTemplate
}

func ProcessContent(content []byte, isTemplate bool, data TemplateData) []byte {
	if !isTemplate {
		return content
	}

	result := string(content)
	result = strings.ReplaceAll(result, "{{.Name}}", data.Name)
	result = strings.ReplaceAll(result, "{{.Loader}}", data.Loader)

	return []byte(result)
}

func DeriveName(projectDir string) string {
	base := filepath.Base(projectDir)
	if base == "." || base == "/" || base == "" {
		return "site"
	}
	return base
}
