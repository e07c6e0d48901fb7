package search

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a lookup runs.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last function scheduled within the quiet period.
// Scheduling again also cancels the context of a lookup still in flight.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewDebouncer creates a debouncer; a non-positive delay uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Do schedules fn, replacing anything scheduled earlier.
func (d *Debouncer) Do(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	seq := d.seq

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.seq == seq
		d.mu.Unlock()
		if !current {
			return
		}
		fn(ctx)
	})
}

// Stop drops the pending call and cancels one in flight.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
