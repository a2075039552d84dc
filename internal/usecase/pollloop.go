package usecase

import (
	"context"
	"time"

	"PackCurator/internal/ports"
)

// PollLoop wires the ticker driver with the publisher use case.
type PollLoop struct {
	driver    ports.Scheduler
	publisher *Publisher
}

// NewPollLoop returns a helper to start/stop the recurring queue check.
func NewPollLoop(driver ports.Scheduler, publisher *Publisher) *PollLoop {
	return &PollLoop{driver: driver, publisher: publisher}
}

// Start registers the publisher tick with the provided scheduler.
func (l *PollLoop) Start(ctx context.Context) error {
	if l.driver == nil || l.publisher == nil {
		return nil
	}

	job := func(tick time.Time) {
		l.publisher.Tick(ctx, tick)
	}

	return l.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (l *PollLoop) Stop(ctx context.Context) error {
	if l.driver == nil {
		return nil
	}

	return l.driver.Stop(ctx)
}
