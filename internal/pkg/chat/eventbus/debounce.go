package eventbus

import (
	"sync"
	"time"
)

// Debouncer coalesces repeated triggers per key into one callback, with
// last-event-wins scheduling: a new trigger for a pending key resets its
// timer. Close cancels every pending timer deterministically so no work
// survives session end.
type Debouncer struct {
	delay time.Duration
	fn    func(key string)

	mu     sync.Mutex
	timers map[string]pendingTimer
	gen    uint64
	closed bool
}

// pendingTimer tags each scheduled timer with a generation so a fire racing
// a reset can tell whether its timer still owns the key. Stop on an already
// expired timer is a no-op, so the expired goroutine may otherwise consume
// the entry a fresh Trigger just installed and cut the new window short.
type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(delay time.Duration, fn func(key string)) *Debouncer {
	return &Debouncer{
		delay:  delay,
		fn:     fn,
		timers: make(map[string]pendingTimer),
	}
}

// Trigger schedules (or reschedules) the callback for key after the delay.
func (d *Debouncer) Trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if p, ok := d.timers[key]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timers[key] = pendingTimer{
		timer: time.AfterFunc(d.delay, func() { d.fire(key, gen) }),
		gen:   gen,
	}
}

// Cancel drops any pending callback for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.timers[key]; ok {
		p.timer.Stop()
		delete(d.timers, key)
	}
}

// Pending returns the number of keys with a scheduled callback.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Close cancels all pending timers; subsequent triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key, p := range d.timers {
		p.timer.Stop()
		delete(d.timers, key)
	}
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.timers[key]
	if d.closed || !ok || p.gen != gen {
		// canceled, replaced or shut down between expiry and lock acquisition
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.mu.Unlock()
	d.fn(key)
}
