package scheduler

import (
	"context"
	"time"

	"PackCurator/internal/ports"
)

// Ticker drives a recurring job on a fixed interval after a short initial
// delay. Ticks with nothing to do are ordinary, not errors.
type Ticker struct {
	interval     time.Duration
	initialDelay time.Duration
	stop         chan struct{}
}

var _ ports.Scheduler = (*Ticker)(nil)

// NewTicker builds a scheduler with the given tick interval and delay
// before the first tick.
func NewTicker(interval, initialDelay time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Ticker{interval: interval, initialDelay: initialDelay}
}

// Start begins ticking in a background goroutine. Calling Start twice
// without Stop is a no-op.
func (t *Ticker) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if t.stop != nil {
		return nil
	}

	t.stop = make(chan struct{})
	go func() {
		if t.initialDelay > 0 {
			select {
			case <-time.After(t.initialDelay):
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case tick := <-ticker.C:
				job(tick)
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (t *Ticker) Stop(ctx context.Context) error {
	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil
	return nil
}
