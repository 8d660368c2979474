// Package debounce coalesces bursts of triggers into a single action.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once after the trigger has been quiet for the delay.
// Every Trigger resets the deadline.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// New creates a Debouncer for fn.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger arms or re-arms the deadline.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops a pending run without stopping the debouncer. A timer that
// already fired but has not run fn yet is dropped too.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels a pending run and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// fire runs fn if no Trigger, Cancel or Stop happened since generation gen
// was armed.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()
	fn()
}

// Latest is a timer-gated buffer: values pushed during the quiet period
// replace each other and only the last one is delivered.
type Latest[T any] struct {
	mu      sync.Mutex
	value   T
	pending bool
	deliver func(T)
	d       *Debouncer
}

// NewLatest creates a latest-value-wins buffer that calls deliver once the
// input has been quiet for delay.
func NewLatest[T any](delay time.Duration, deliver func(T)) *Latest[T] {
	l := &Latest[T]{deliver: deliver}
	l.d = New(delay, l.flush)
	return l
}

// Push records v and re-arms the deadline.
func (l *Latest[T]) Push(v T) {
	l.mu.Lock()
	l.value, l.pending = v, true
	l.mu.Unlock()
	l.d.Trigger()
}

// Stop drops any pending value.
func (l *Latest[T]) Stop() {
	l.d.Stop()
}

func (l *Latest[T]) flush() {
	l.mu.Lock()
	if !l.pending {
		l.mu.Unlock()
		return
	}
	v := l.value
	l.pending = false
	l.mu.Unlock()
	l.deliver(v)
}
