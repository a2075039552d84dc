package usecase

import (
	"context"
	"log/slog"
	"time"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
)

// maxDeliveryAttempts bounds redelivery of a failing queued post before it
// is dropped for good.
const maxDeliveryAttempts = 5

// PublisherDeps wires the poller's collaborators.
type PublisherDeps struct {
	Queue     ports.QueueStore
	Transport ports.Transport
	Images    ports.ImageStore
	Logger    *slog.Logger
}

// Publisher drains due posts from the scheduled queue and delivers them to
// the channel. A failed delivery is re-enqueued with an incremented
// attempt counter and retried on a later tick, up to maxDeliveryAttempts.
type Publisher struct {
	queue     ports.QueueStore
	transport ports.Transport
	images    ports.ImageStore
	logger    *slog.Logger
}

// NewPublisher constructs the poller use case.
func NewPublisher(deps PublisherDeps) *Publisher {
	return &Publisher{
		queue:     deps.Queue,
		transport: deps.Transport,
		images:    deps.Images,
		logger:    deps.Logger,
	}
}

// Tick processes every post due at now, in queue order. An empty drain is
// an ordinary no-op.
func (p *Publisher) Tick(ctx context.Context, now time.Time) {
	due, err := p.queue.DrainDue(now)
	if err != nil {
		p.warn("drain queue", "error", err)
		return
	}

	for _, post := range due {
		p.deliver(ctx, post)
	}
}

func (p *Publisher) deliver(ctx context.Context, post domain.QueuedPost) {
	err := p.transport.DeliverPost(ctx, post.Text, post.ImagePath, post.DownloadURL)
	if err == nil {
		p.release(post.ImagePath)
		p.info("published queued post", "pack", post.PackID, "title", post.Title)
		return
	}

	post.Attempts++
	if post.Attempts >= maxDeliveryAttempts {
		p.release(post.ImagePath)
		p.warn("dropping post after repeated delivery failures",
			"pack", post.PackID, "attempts", post.Attempts, "error", err)
		return
	}

	p.warn("delivery failed, re-queueing", "pack", post.PackID, "attempt", post.Attempts, "error", err)
	if qErr := p.queue.Enqueue(post); qErr != nil {
		p.release(post.ImagePath)
		p.warn("re-queue failed, post lost", "pack", post.PackID, "error", qErr)
	}
}

func (p *Publisher) release(imagePath string) {
	if p.images != nil {
		p.images.Release(imagePath)
	}
}

func (p *Publisher) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Publisher) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
