// Package watcher watches the catalog and training files with fsnotify and
// triggers a debounced rebuild when any of them changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a set of files and calls onChange once per burst of changes.
// Parent directories are watched rather than the files themselves so that
// editors and tools replacing a file by rename are still seen.
type Watcher struct {
	files    map[string]struct{}
	dirs     map[string]struct{}
	onChange func(changed []string)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period after the last change before onChange runs.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over files. Empty paths are ignored.
func NewWatcher(files []string, onChange func(changed []string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		onChange: onChange,
		debounce: defaultDebounce,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, f := range files {
		if p, ok := cleanPath(f); ok {
			w.files[p] = struct{}{}
		}
	}
	return w
}

func cleanPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	return filepath.Clean(abs), true
}

// Start starts watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	for f := range w.files {
		if err := w.addDirLocked(filepath.Dir(f)); err != nil {
			_ = fw.Close()
			w.watcher = nil
			w.dirs = make(map[string]struct{})
			w.mu.Unlock()
			return err
		}
	}
	w.started = true
	w.logger.Debug("watcher starting", zap.Strings("files", w.filesLocked()), zap.Duration("debounce", w.debounce))
	w.mu.Unlock()
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	path := filepath.Clean(ev.Name)
	w.mu.Lock()
	_, watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	w.schedule(path)
}

// schedule records path as changed and restarts the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	onChange := w.onChange
	w.mu.Unlock()
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.logger.Info("watched files changed", zap.Strings("paths", changed))
	if onChange != nil {
		onChange(changed)
	}
}

// addDirLocked watches dir. A missing directory is logged and skipped; files in
// it are not reported until the watcher is restarted.
func (w *Watcher) addDirLocked(dir string) error {
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		w.logger.Warn("watched directory does not exist, skipping", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.logger.Warn("watched path parent is not a directory, skipping", zap.String("dir", dir))
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = struct{}{}
	return nil
}

// Files returns the configured files whose directories are being watched, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filesLocked()
}

func (w *Watcher) filesLocked() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		if _, ok := w.dirs[filepath.Dir(f)]; ok {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// Stop stops the watcher and releases resources. Pending changes are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
	_ = w.watcher.Close()
	w.watcher = nil
	w.dirs = make(map[string]struct{})
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
