package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settle is the quiet period after the last event before a change is reported
const settle = 150 * time.Millisecond

// Watcher follows one folder and reports when its contents change.
// Bursts of events (a copy, an extraction) are reported once.
type Watcher struct {
	logger   *zap.Logger
	fw       *fsnotify.Watcher
	onChange func(dir string)
	settle   time.Duration

	mu  sync.Mutex
	dir string

	started atomic.Bool
	done    chan struct{}
}

// New creates a watcher that calls onChange from its own goroutine
func New(logger *zap.Logger, onChange func(dir string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating folder watcher: %w", err)
	}
	return &Watcher{
		logger:   logger.Named("watch"),
		fw:       fw,
		onChange: onChange,
		settle:   settle,
		done:     make(chan struct{}),
	}, nil
}

// Follow moves the watch to dir; the previous folder is no longer watched
func (w *Watcher) Follow(dir string) error {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		if err := w.fw.Remove(w.dir); err != nil {
			w.logger.Debug("Could not unwatch folder", zap.String("folder", w.dir), zap.Error(err))
		}
		w.dir = ""
	}
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.dir = dir
	w.logger.Debug("Watching folder", zap.String("folder", dir))
	return nil
}

// Current returns the folder being watched
func (w *Watcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Start launches the event loop in a goroutine
func (w *Watcher) Start(ctx context.Context) error {
	if w.started.CompareAndSwap(false, true) {
		go w.loop()
	}
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(w.settle)
	timer.Stop()
	var pending string

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				timer.Stop()
				return
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			dir := w.Current()
			if dir == "" || filepath.Dir(ev.Name) != dir {
				continue
			}
			pending = dir
			timer.Reset(w.settle)

		case err, ok := <-w.fw.Errors:
			if !ok {
				timer.Stop()
				return
			}
			w.logger.Warn("Folder watch error", zap.Error(err))

		case <-timer.C:
			// drop changes for a folder we have since left
			if pending != "" && pending == w.Current() {
				w.onChange(pending)
			}
			pending = ""
		}
	}
}

// Stop closes the watcher and waits for the event loop to exit
func (w *Watcher) Stop(ctx context.Context) error {
	err := w.fw.Close()
	if !w.started.Load() {
		return err
	}
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
