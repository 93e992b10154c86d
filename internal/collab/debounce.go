package collab

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of calls per key: each trigger resets the key's
// timer, so only the last call within the quiet window fires. Position drags
// and keystrokes go through this so the relay sees one frame per pause in
// input, not one per event.
type debouncer struct {
	mu     sync.Mutex
	wait   time.Duration
	timers map[string]*time.Timer
}

func newDebouncer(wait time.Duration) *debouncer {
	return &debouncer{
		wait:   wait,
		timers: make(map[string]*time.Timer),
	}
}

// trigger schedules fn to run after the quiet window, replacing any pending
// run for the same key.
func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

// stop cancels all pending runs.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
