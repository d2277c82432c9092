package files

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports workbooks that land in a directory once they stop changing.
type Watcher struct {
	dir    string
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher watches dir and waits delay after the last write before reporting a file.
func NewWatcher(dir string, delay time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		dir:     dir,
		delay:   delay,
		logger:  logger.With(slog.String("component", "watcher")),
		pending: make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is done, calling ready with the path of each stabilized file.
// Pending stabilization timers are cancelled on return.
func (w *Watcher) Run(ctx context.Context, ready func(path string)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	defer w.cancelPending()

	w.logger.Info("Watching directory",
		slog.String("dir", w.dir),
		slog.Duration("stabilization_delay", w.delay))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopped", slog.String("dir", w.dir))
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event, ready)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, ready func(string)) {
	name := filepath.Base(event.Name)
	if !IsCandidate(name) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(ctx, event.Name, ready)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// Rename fires for the old name; the new name arrives as Create
		w.cancel(event.Name)
	}
}

// schedule (re)starts the stabilization timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.delay)
		return
	}

	w.logger.Debug("File arrived", slog.String("file", filepath.Base(path)))

	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		ready(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// Pending returns how many files are waiting to stabilize.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
