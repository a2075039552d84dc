package ports

import (
	"context"
	"time"

	"PackCurator/internal/domain"
)

// PackSource pulls fresh modpack candidates from upstream catalogs.
type PackSource interface {
	Search(ctx context.Context) ([]domain.Pack, error)
}

// DedupStore records pack identifiers that have been terminally processed
// (queued, published, or rejected). Mark is idempotent; once an id is
// present it is never removed.
type DedupStore interface {
	IsMarked(ctx context.Context, id string) bool
	Mark(ctx context.Context, id string) error
}

// Styler renders the channel post text for a single pack. Implementations
// backed by remote services may fail; callers then fall back to the
// template renderer, which never does.
type Styler interface {
	Render(ctx context.Context, pack domain.Pack) (string, error)
}

// Transport delivers rendered posts to the output channel and previews to
// the reviewing operator.
type Transport interface {
	DeliverPost(ctx context.Context, text, imagePath, downloadURL string) error
	ShowPreview(ctx context.Context, chatID int64, text, imageURL, downloadURL string) error
	Notify(ctx context.Context, chatID int64, text string) error
}

// ImageStore fetches remote images into local files and releases them after
// delivery. Fetch returns an empty path when the image is unavailable.
type ImageStore interface {
	Fetch(ctx context.Context, url, packID string) string
	Release(path string)
}

// QueueStore persists the scheduled post queue.
type QueueStore interface {
	Enqueue(post domain.QueuedPost) error
	DrainDue(now time.Time) ([]domain.QueuedPost, error)
	List() ([]domain.QueuedPost, error)
}

// Scheduler controls when the queue poller executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
