package provider

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/fintide/go-hybrid-cache/internal/platform"
)

// Debouncer is a cancellable deferred-task primitive: repeated Schedule
// calls within the delay window coalesce into one execution. Driving it
// from the injected clock keeps flush-on-shutdown and coalescing
// deterministic under a mock clock.
type Debouncer struct {
	clock platform.Clock
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *clock.Timer
	stopped bool
}

func NewDebouncer(clk platform.Clock, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{clock: clk, delay: delay, fn: fn}
}

// Schedule arms (or re-arms) the deferred execution.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, d.fn)
}

// Flush cancels any pending execution and runs the task immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped {
		d.fn()
	}
}

// Stop cancels any pending execution without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.stopped = true
}
