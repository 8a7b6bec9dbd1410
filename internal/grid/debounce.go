package grid

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period applied to live filter input
const DefaultDebounce = 300 * time.Millisecond

// Debouncer delays a callback until no new value has arrived for the quiet
// period. Each Trigger cancels the pending call and schedules a new one with
// the latest value. The callback runs on its own goroutine.
type Debouncer struct {
	delay time.Duration
	fn    func(string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	seq     uint64
	stopped bool
}

// NewDebouncer creates a debouncer that calls fn after delay of quiet.
// A non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger records value and restarts the quiet period.
func (d *Debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = value
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	// a newer Trigger or Stop raced with this timer
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.timer = nil
	d.mu.Unlock()

	d.fn(value)
}

// Flush runs a pending call immediately. Returns false if nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.seq++
	value := d.pending
	d.mu.Unlock()

	d.fn(value)
	return true
}

// Cancel drops a pending call. Later triggers are still accepted.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels any pending call. The debouncer ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
