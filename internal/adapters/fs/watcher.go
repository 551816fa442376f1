package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
}

func ShouldSkipDir(name string, extra ...string) bool {
	if _, exists := skipDirs[name]; exists {
		return true
	}
	for _, dir := range extra {
		if dir != "" && name == dir {
			return true
		}
	}
	return false
}

// Watcher reports changes anywhere under a root directory, coalescing bursts
// of events into a single callback.
type Watcher struct {
	root     string
	skip     []string
	debounce time.Duration
	onChange func(path string)
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	once    sync.Once
	started bool
	done    chan struct{}
}

func NewWatcher(root string, onChange func(path string), logger *zap.Logger, skip ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		root:     root,
		skip:     skip,
		debounce: 100 * time.Millisecond,
		onChange: onChange,
		logger:   logger,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start registers every directory under root and runs the event loop until
// ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watchDirs(w.root); err != nil {
		return err
	}

	w.started = true
	go w.run(ctx)
	return nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		if w.started {
			<-w.done
		}
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	var (
		timer   *time.Timer
		pending string
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if !isWatchEvent(event.Op) {
				continue
			}
			if w.shouldAddWatchDir(event) {
				if err := w.watchDirs(event.Name); err != nil {
					w.logger.Debug("watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Debug("change detected", zap.String("path", pending))
			if w.onChange != nil {
				w.onChange(pending)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) watchDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skip unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && ShouldSkipDir(d.Name(), w.skip...) {
			return filepath.SkipDir
		}

		return w.watcher.Add(path)
	})
}

func isWatchEvent(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) shouldAddWatchDir(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == 0 {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}

	return info.IsDir() && !ShouldSkipDir(info.Name(), w.skip...)
}
