package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into one callback after a quiet
// window. A save in most editors produces several events per file;
// one re-trace is enough.
type Debouncer struct {
	quiet    time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(quiet time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		quiet:    quiet,
		callback: callback,
	}
}

// Trigger resets the timer. The callback fires once the window
// elapses with no further triggers.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.callback)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
