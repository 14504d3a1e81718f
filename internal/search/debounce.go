package search

import (
	"sync"
	"time"
)

// DefaultQuiet is the input inactivity period before a search fires.
const DefaultQuiet = 300 * time.Millisecond

// Debouncer coalesces a burst of calls into one: each Call cancels the
// pending timer and schedules fn after the quiet period, so only the last
// call in a burst runs.
type Debouncer struct {
	quiet time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period. A
// non-positive period falls back to DefaultQuiet.
func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{quiet: quiet}
}

// Call schedules fn after the quiet period, cancelling any pending call.
// fn runs on a timer goroutine.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
