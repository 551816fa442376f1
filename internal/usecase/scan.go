package usecase

import (
	"context"
	iofs "io/fs"
	"iter"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/rendr/internal/core"
)

// Scanner discovers render sources below a directory. It keeps no state
// between calls; every scan reads the filesystem again.
type Scanner struct {
	fs      FileSystem
	suffix  string
	exclude map[string]bool
	logger  *zap.Logger
}

type ScannerOption func(*Scanner)

// WithExcludeDir skips directories called name in addition to node_modules,
// which is always skipped.
func WithExcludeDir(name string) ScannerOption {
	return func(s *Scanner) {
		if name != "" {
			s.exclude[name] = true
		}
	}
}

func WithScanLogger(logger *zap.Logger) ScannerOption {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewScanner(fs FileSystem, suffix string, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		fs:      fs,
		suffix:  suffix,
		exclude: map[string]bool{core.DependencyCacheDir: true},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) Suffix() string {
	return s.suffix
}

type entryKind int

const (
	entrySkip entryKind = iota
	entryDir
	entrySource
)

func (s *Scanner) classify(entry iofs.DirEntry) entryKind {
	if entry.IsDir() {
		if s.exclude[entry.Name()] {
			return entrySkip
		}
		return entryDir
	}
	if core.HasRenderSuffix(entry.Name(), s.suffix) {
		return entrySource
	}
	return entrySkip
}

func (s *Scanner) readDir(dir string) []iofs.DirEntry {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		s.logger.Debug("skip unreadable directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}
	return entries
}

// All yields the render sources under dir lazily, depth first, in directory
// listing order. maxDepth counts dir itself as level 1.
func (s *Scanner) All(dir string, maxDepth int) iter.Seq[core.RenderSource] {
	return func(yield func(core.RenderSource) bool) {
		s.walk(dir, maxDepth, yield)
	}
}

func (s *Scanner) walk(dir string, maxDepth int, yield func(core.RenderSource) bool) bool {
	if maxDepth < 1 {
		return true
	}

	for _, entry := range s.readDir(dir) {
		entryPath := filepath.Join(dir, entry.Name())

		switch s.classify(entry) {
		case entryDir:
			if !s.walk(entryPath, maxDepth-1, yield) {
				return false
			}
		case entrySource:
			if !yield(core.NewRenderSource(entryPath, s.suffix)) {
				return false
			}
		}
	}

	return true
}

// Collect returns the same sequence as All, examining the entries of each
// directory concurrently.
func (s *Scanner) Collect(ctx context.Context, dir string, maxDepth int) []core.RenderSource {
	if maxDepth < 1 || ctx.Err() != nil {
		return nil
	}

	entries := s.readDir(dir)
	slots := make([][]core.RenderSource, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		g.Go(func() error {
			entryPath := filepath.Join(dir, entry.Name())

			switch s.classify(entry) {
			case entryDir:
				slots[i] = s.Collect(gctx, entryPath, maxDepth-1)
			case entrySource:
				slots[i] = []core.RenderSource{core.NewRenderSource(entryPath, s.suffix)}
			}
			return nil
		})
	}
	_ = g.Wait()

	var sources []core.RenderSource
	for _, slot := range slots {
		sources = append(sources, slot...)
	}
	return sources
}
