package hotkey

import "time"

// DefaultDebounceWindow suppresses key repeat and doubled key-down delivery.
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer drops repeated activations of the same key inside a window.
// It is not synchronized; the dispatcher goroutine is its only caller.
type Debouncer struct {
	window time.Duration

	fired       bool
	lastFired   Key
	lastFiredAt time.Time
}

// NewDebouncer returns a debouncer; a non-positive window disables suppression.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Allow records an activation of key at the given time and reports whether it should fire.
func (d *Debouncer) Allow(key Key, at time.Time) bool {
	if d.fired && key == d.lastFired && d.window > 0 {
		if since := at.Sub(d.lastFiredAt); since >= 0 && since < d.window {
			return false
		}
	}
	d.fired = true
	d.lastFired = key
	d.lastFiredAt = at
	return true
}

// Reset forgets the last activation.
func (d *Debouncer) Reset() {
	d.fired = false
	d.lastFired = Key{}
	d.lastFiredAt = time.Time{}
}
