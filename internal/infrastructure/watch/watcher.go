// Package watch re-runs analysis when traced files change, with
// debouncing so editor save bursts trigger a single run.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent is one coalesced filesystem change. Path is relative to
// the watched root, slash-separated.
type ChangeEvent struct {
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// Watcher observes a directory tree and invokes a callback for
// changes that pass the artifact filter.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	filter   *Filter
	debounce time.Duration
	onChange func(ChangeEvent)
}

// NewWatcher creates a watcher over root. Events whose paths the
// filter rejects never reach the callback.
func NewWatcher(root string, filter *Filter, debounce time.Duration, onChange func(ChangeEvent)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		root:     root,
		watcher:  w,
		filter:   filter,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Watch adds the root and all its subdirectories to the watcher.
func (w *Watcher) Watch() error {
	return w.watchRecursive(w.root)
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// lastEvent is written here and read from the debouncer's timer
	// goroutine, so access goes through the mutex.
	var (
		mu        sync.Mutex
		lastEvent ChangeEvent
	)
	debouncer := NewDebouncer(w.debounce, func() {
		mu.Lock()
		ev := lastEvent
		mu.Unlock()
		if w.onChange != nil {
			w.onChange(ev)
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}

			// A freshly created directory must be watched before
			// anything written inside it can be seen.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watchRecursive(event.Name)
				}
			}

			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if w.filter != nil && !w.filter.Matches(rel) {
				continue
			}

			mu.Lock()
			lastEvent = ChangeEvent{Path: rel, ChangeType: changeType}
			mu.Unlock()
			debouncer.Trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
