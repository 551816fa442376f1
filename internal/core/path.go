package core

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if p != "/" && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

func ValidateRoutePath(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}

	if strings.Contains(p, "?") {
		return fmt.Errorf("path cannot contain query string")
	}

	if strings.Contains(p, "#") {
		return fmt.Errorf("path cannot contain fragment")
	}

	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("path cannot contain NUL bytes")
	}

	return nil
}

// TargetPath joins a request path onto root. Parent references are resolved
// against a virtual "/" first, so the result never leaves root.
func TargetPath(root string, requestPath string) string {
	requestPath = strings.ReplaceAll(requestPath, "\\", "/")
	cleaned := path.Clean("/" + requestPath)
	if cleaned == "/" {
		return filepath.Clean(root)
	}
	return filepath.Join(root, filepath.FromSlash(cleaned))
}

func IndexPath(target string) string {
	return filepath.Join(target, IndexName)
}
