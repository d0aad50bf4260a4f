// Package watch reports settled file changes under a directory tree.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before it is reported.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a directory tree, including directories created later.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	accept   func(path string) bool
	skipDir  func(path string) bool
	debounce time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// Options tunes a Watcher. Nil funcs accept everything and skip nothing.
type Options struct {
	Accept   func(path string) bool
	SkipDir  func(path string) bool
	Debounce time.Duration
	Log      *slog.Logger
}

func New(root string, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:  fw,
		root:     root,
		accept:   opts.Accept,
		skipDir:  opts.SkipDir,
		debounce: opts.Debounce,
		log:      opts.Log,
		pending:  make(map[string]time.Time),
	}
	if w.accept == nil {
		w.accept = func(string) bool { return true }
	}
	if w.skipDir == nil {
		w.skipDir = func(string) bool { return false }
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.log == nil {
		w.log = slog.New(slog.DiscardHandler)
	}
	if err := w.addTree(root, false); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories. With mark set, files already
// present are queued, since they may have landed before the watch was added.
func (w *Watcher) addTree(dir string, mark bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if mark && w.accept(path) {
				w.touch(path)
			}
			return nil
		}
		if path != dir && w.skipDir(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run delivers settled paths to onChange until ctx is done. It closes the
// underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.watcher.Close()

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-ticker.C:
			for _, p := range w.settled() {
				onChange(p)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.skipDir(event.Name) {
				return
			}
			if err := w.addTree(event.Name, true); err != nil {
				w.log.Warn("watch new directory failed", "dir", event.Name, "error", err)
			}
			return
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.accept(event.Name) {
		return
	}
	w.touch(event.Name)
}

func (w *Watcher) touch(path string) {
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns paths quiet for at least the debounce window.
func (w *Watcher) settled() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	var out []string
	for p, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			out = append(out, p)
			delete(w.pending, p)
		}
	}
	return out
}
