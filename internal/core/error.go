package core

import (
	"errors"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
)

type RenderStage string

const (
	StageLoad   RenderStage = "load"
	StageRender RenderStage = "render"
)

var ErrNoDefaultExport = errors.New("module has no render entry point")

// RenderError is a failure to load a render source or to run its render
// function. Stack holds whatever trace the loader could recover.
type RenderError struct {
	Path  string
	Stage RenderStage
	Err   error
	Stack string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ScriptError carries an error reported by a module runtime outside the Go
// process, keeping the runtime's own stack trace.
type ScriptError struct {
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	return e.Message
}

// NormalizeTrace rewrites absolute locations under root to root-relative
// ones and drops file:// URL prefixes, so traces read the same on any machine.
func NormalizeTrace(trace string, root string) string {
	trace = strings.ReplaceAll(trace, "file://", "")
	root = filepath.Clean(root)
	if root == "." || root == string(filepath.Separator) {
		return trace
	}
	prefix := root + string(filepath.Separator)
	trace = strings.ReplaceAll(trace, prefix, "")
	return strings.ReplaceAll(trace, filepath.ToSlash(prefix), "")
}

// Diagnostic is the text shown to a developer for a failed request.
func Diagnostic(err error, root string) string {
	var sb strings.Builder
	sb.WriteString(err.Error())

	stack := ""
	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		stack = renderErr.Stack
	}
	var scriptErr *ScriptError
	if stack == "" && errors.As(err, &scriptErr) {
		stack = scriptErr.Stack
	}

	if stack != "" {
		sb.WriteString("\n\n")
		sb.WriteString(stack)
	}

	return NormalizeTrace(sb.String(), root)
}

type ErrorData struct {
	Message string
	Path    string
}

var ErrorTemplate = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Render Error</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 960px; margin: 50px auto; padding: 0 20px; }
        h1 { color: #e74c3c; }
        pre { background: #f8f9fa; padding: 15px; border-radius: 5px; overflow-x: auto; }
    </style>
</head>
<body>
    <h1>Internal Server Error</h1>
    {{if .Path}}<p>{{.Path}}</p>{{end}}
    <pre>{{.Message}}</pre>
</body>
</html>`))
