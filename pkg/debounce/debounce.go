// Package debounce groups bursts of calls, notifying once when a burst starts
// and once when it settles.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs start on the first call of a burst and end with the last
// call's value once wait has elapsed without further calls.
type Debouncer[T any] struct {
	mu       sync.Mutex
	start    func(T)
	end      func(T)
	wait     time.Duration
	timer    *time.Timer
	gen      uint64
	started  bool
	starting bool
	pending  bool
	last     T
}

// StartEnd builds a Debouncer. A nil end reuses start for the trailing call.
func StartEnd[T any](start func(T), wait time.Duration, end func(T)) *Debouncer[T] {
	if end == nil {
		end = start
	}
	return &Debouncer[T]{start: start, end: end, wait: wait}
}

// Call records value and restarts the quiet period. The quiet period of a
// new burst starts only after start returns, so end never precedes start.
func (d *Debouncer[T]) Call(value T) {
	d.mu.Lock()
	d.last = value
	d.pending = true
	if d.started {
		if !d.starting {
			d.arm()
		}
		d.mu.Unlock()
		return
	}
	d.started = true
	d.starting = true
	d.mu.Unlock()

	if d.start != nil {
		d.start(value)
	}

	d.mu.Lock()
	d.starting = false
	if d.started {
		d.arm()
	}
	d.mu.Unlock()
}

// arm restarts the timer. Callers hold mu.
func (d *Debouncer[T]) arm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	value, ok := d.settle()
	d.mu.Unlock()

	if ok && d.end != nil {
		d.end(value)
	}
}

// settle ends the burst. Callers hold mu.
func (d *Debouncer[T]) settle() (T, bool) {
	var zero T
	d.timer = nil
	d.started = false
	if !d.pending {
		return zero, false
	}
	value := d.last
	d.pending = false
	d.last = zero
	return value, true
}

// Cancel drops the pending trailing call and ends the burst.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.settle()
}

// Flush runs the pending trailing call immediately, if a burst is active.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer.Stop()
	d.gen++
	value, ok := d.settle()
	d.mu.Unlock()

	if ok && d.end != nil {
		d.end(value)
	}
}

// Pending reports whether a burst is in progress.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}
