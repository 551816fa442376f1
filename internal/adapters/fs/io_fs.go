package fs

import (
	"errors"
	iofs "io/fs"
	"path/filepath"
	"strings"
)

// IOFileSystem exposes a read-only io/fs.FS through FileSystem. Paths are
// host paths; leading "./" and "/" are stripped before lookup.
type IOFileSystem struct {
	fsys iofs.FS
}

func NewIOFileSystem(fsys iofs.FS) *IOFileSystem {
	return &IOFileSystem{fsys: fsys}
}

func (fs *IOFileSystem) ReadFile(path string) ([]byte, error) {
	return iofs.ReadFile(fs.fsys, fsPath(path))
}

func (fs *IOFileSystem) ReadDir(path string) ([]iofs.DirEntry, error) {
	return iofs.ReadDir(fs.fsys, fsPath(path))
}

func (fs *IOFileSystem) FileExists(path string) bool {
	_, err := iofs.Stat(fs.fsys, fsPath(path))
	return err == nil
}

func (fs *IOFileSystem) WriteFile(path string, data []byte, perm iofs.FileMode) error {
	return errors.New("io filesystem is read-only")
}

func (fs *IOFileSystem) MkdirAll(path string, perm iofs.FileMode) error {
	return errors.New("io filesystem is read-only")
}

func (fs *IOFileSystem) Remove(path string) error {
	return errors.New("io filesystem is read-only")
}

func fsPath(path string) string {
	path = filepath.ToSlash(filepath.Clean(path))
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "."
	}
	return path
}
