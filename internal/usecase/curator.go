package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
	"PackCurator/internal/queue"
	"PackCurator/internal/session"
)

// State is an operator's position in the review workflow.
type State int

const (
	// StateIdle means no active review session.
	StateIdle State = iota
	// StateBrowsing means the session has a current pack awaiting a decision.
	StateBrowsing
	// StateEditing means the operator is typing custom post text for the
	// current pack; the next free-form message is the submission.
	StateEditing
)

// Action is an operator decision on the current pack.
type Action string

const (
	ActionQueue      Action = "queue"
	ActionPublishNow Action = "publish_now"
	ActionEdit       Action = "edit"
	ActionRegenerate Action = "regenerate"
	ActionReject     Action = "reject"
)

// ErrStaleSession reports an action arriving with no current pack, e.g.
// after a restart wiped the in-memory sessions.
var ErrStaleSession = fmt.Errorf("review session has no current pack")

// ErrIllegalTransition reports an action that the operator's current state
// does not accept.
var ErrIllegalTransition = fmt.Errorf("action not allowed in current state")

// CuratorDeps wires all driven adapters into the review workflow.
type CuratorDeps struct {
	Source    ports.PackSource
	Dedup     ports.DedupStore
	Queue     ports.QueueStore
	Styler    ports.Styler
	Transport ports.Transport
	Images    ports.ImageStore
	Sessions  *session.Registry
	Location  *time.Location
	Now       func() time.Time
	Logger    *slog.Logger
}

// Curator drives the one-pack-at-a-time review workflow: it owns the
// per-operator state machine and orchestrates session, dedup store, and
// scheduled queue in response to operator actions.
type Curator struct {
	source    ports.PackSource
	dedup     ports.DedupStore
	queue     ports.QueueStore
	styler    ports.Styler
	transport ports.Transport
	images    ports.ImageStore
	sessions  *session.Registry
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger

	mu     sync.Mutex
	states map[int64]*operatorState
}

type operatorState struct {
	state   State
	editing domain.Pack
}

// NewCurator constructs the workflow controller.
func NewCurator(deps CuratorDeps) *Curator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = session.NewRegistry()
	}

	return &Curator{
		source:    deps.Source,
		dedup:     deps.Dedup,
		queue:     deps.Queue,
		styler:    deps.Styler,
		transport: deps.Transport,
		images:    deps.Images,
		sessions:  sessions,
		loc:       loc,
		now:       now,
		logger:    deps.Logger,
	}
}

// OperatorState returns the workflow state for an operator.
func (c *Curator) OperatorState(operatorID int64) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.states[operatorID]; ok {
		return st.state
	}
	return StateIdle
}

func (c *Curator) setState(operatorID int64, state State, editing domain.Pack) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.states == nil {
		c.states = map[int64]*operatorState{}
	}
	c.states[operatorID] = &operatorState{state: state, editing: editing}
}

func (c *Curator) editingPack(operatorID int64) (domain.Pack, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[operatorID]
	if !ok || st.state != StateEditing {
		return domain.Pack{}, false
	}
	return st.editing, true
}

// Search populates the operator's session with fresh candidates and shows
// the first preview. Source failures produce an empty result set, never an
// unwound error.
func (c *Curator) Search(ctx context.Context, chatID, operatorID int64) {
	c.notify(ctx, chatID, "🔍 Searching for new packs...")

	packs, err := c.source.Search(ctx)
	if err != nil {
		c.warn("search failed", "error", err)
		packs = nil
	}

	// The source already skips marked packs; filter again so a pack
	// processed mid-search cannot reappear.
	fresh := packs[:0]
	for _, pack := range packs {
		if c.dedup != nil && c.dedup.IsMarked(ctx, pack.UID()) {
			continue
		}
		fresh = append(fresh, pack)
	}

	if len(fresh) == 0 {
		c.setState(operatorID, StateIdle, domain.Pack{})
		c.notify(ctx, chatID, "😕 No new packs found. Try again later.")
		return
	}

	sess := c.sessions.Get(operatorID)
	sess.SetResults(fresh)
	c.setState(operatorID, StateBrowsing, domain.Pack{})

	c.notify(ctx, chatID, fmt.Sprintf("✅ Found %d new packs. Here is the first one:", len(fresh)))
	if current, ok := sess.Current(); ok {
		c.showPreview(ctx, chatID, current)
	}
}

// Apply runs one review action against the operator's current pack.
func (c *Curator) Apply(ctx context.Context, chatID, operatorID int64, action Action) error {
	if c.OperatorState(operatorID) == StateEditing && action != ActionEdit {
		// Any button press abandons the edit and acts on the same pack.
		c.setState(operatorID, StateBrowsing, domain.Pack{})
	}

	sess := c.sessions.Get(operatorID)
	pack, ok := sess.Current()
	if !ok {
		c.notify(ctx, chatID, "Session expired. Start over with /search")
		return ErrStaleSession
	}

	switch action {
	case ActionQueue:
		return c.queuePack(ctx, chatID, operatorID, pack, "")
	case ActionPublishNow:
		return c.publishNow(ctx, chatID, operatorID, pack)
	case ActionReject:
		return c.reject(ctx, chatID, operatorID, pack)
	case ActionRegenerate:
		c.showPreview(ctx, chatID, pack)
		return nil
	case ActionEdit:
		c.setState(operatorID, StateEditing, pack)
		c.notify(ctx, chatID, "✍️ Send your own post text (Markdown works). It will go to the queue.\nSend /cancel to go back.")
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrIllegalTransition, action)
	}
}

// SubmitEdit consumes the free-form text an operator sends while editing
// and queues the current pack with that text instead of a generated one.
func (c *Curator) SubmitEdit(ctx context.Context, chatID, operatorID int64, text string) error {
	pack, ok := c.editingPack(operatorID)
	if !ok {
		return ErrIllegalTransition
	}

	c.setState(operatorID, StateBrowsing, domain.Pack{})
	return c.queuePack(ctx, chatID, operatorID, pack, text)
}

// CancelEdit leaves the editing state and re-shows the current preview.
func (c *Curator) CancelEdit(ctx context.Context, chatID, operatorID int64) {
	if _, ok := c.editingPack(operatorID); !ok {
		return
	}

	c.setState(operatorID, StateBrowsing, domain.Pack{})
	c.notify(ctx, chatID, "Editing canceled.")

	if current, ok := c.sessions.Get(operatorID).Current(); ok {
		c.showPreview(ctx, chatID, current)
	}
}

// ListQueue reports the persisted queue to the operator.
func (c *Curator) ListQueue(ctx context.Context, chatID int64) {
	posts, err := c.queue.List()
	if err != nil {
		c.warn("list queue", "error", err)
		c.notify(ctx, chatID, "⚠️ Could not read the queue.")
		return
	}
	if len(posts) == 0 {
		c.notify(ctx, chatID, "📭 The queue is empty.")
		return
	}

	text := "📋 **Publication queue:**\n"
	for i, post := range posts {
		text += fmt.Sprintf("\n%d. %s — %s", i+1, post.Title, post.ScheduledTime.In(c.loc).Format("02.01 15:04"))
	}
	c.notify(ctx, chatID, text)
}

// queuePack finishes a pack through the deferred-publication path:
// render (unless operator text is supplied), assign the next slot, fetch
// the image, persist the post, mark the pack, and advance the session.
func (c *Curator) queuePack(ctx context.Context, chatID, operatorID int64, pack domain.Pack, operatorText string) error {
	text := operatorText
	if text == "" {
		text, _ = c.styler.Render(ctx, pack)
	}

	slot := queue.NextSlot(c.now(), c.loc)
	imagePath := c.fetchImage(ctx, pack)

	post := domain.QueuedPost{
		ID:            uuid.NewString(),
		Text:          text,
		ImagePath:     imagePath,
		DownloadURL:   pack.DownloadURL,
		ScheduledTime: slot,
		PackID:        pack.UID(),
		Title:         pack.Title,
	}

	if err := c.queue.Enqueue(post); err != nil {
		c.images.Release(imagePath)
		c.warn("enqueue post", "pack", pack.UID(), "error", err)
		c.notify(ctx, chatID, "⚠️ Could not queue the pack, try again.")
		return err
	}

	c.mark(ctx, pack)
	c.notify(ctx, chatID, fmt.Sprintf("✅ Queued for %s", slot.In(c.loc).Format("02.01 15:04")))
	c.advance(ctx, chatID, operatorID)
	return nil
}

// publishNow bypasses the queue. Unlike the poller path, a delivery
// failure is surfaced to the operator immediately and nothing is marked,
// so the action can simply be retried.
func (c *Curator) publishNow(ctx context.Context, chatID, operatorID int64, pack domain.Pack) error {
	text, _ := c.styler.Render(ctx, pack)
	imagePath := c.fetchImage(ctx, pack)

	if err := c.transport.DeliverPost(ctx, text, imagePath, pack.DownloadURL); err != nil {
		c.images.Release(imagePath)
		c.warn("publish now", "pack", pack.UID(), "error", err)
		c.notify(ctx, chatID, fmt.Sprintf("❌ Publish failed: %v", err))
		return err
	}

	c.images.Release(imagePath)
	c.mark(ctx, pack)
	c.notify(ctx, chatID, "🚀 Published to the channel!")
	c.advance(ctx, chatID, operatorID)
	return nil
}

func (c *Curator) reject(ctx context.Context, chatID, operatorID int64, pack domain.Pack) error {
	c.mark(ctx, pack)
	c.notify(ctx, chatID, "❌ Rejected.")
	c.advance(ctx, chatID, operatorID)
	return nil
}

// advance moves to the next candidate or closes the session when none
// remain.
func (c *Curator) advance(ctx context.Context, chatID, operatorID int64) {
	sess := c.sessions.Get(operatorID)
	if next, ok := sess.Advance(); ok {
		c.setState(operatorID, StateBrowsing, domain.Pack{})
		c.showPreview(ctx, chatID, next)
		return
	}

	c.setState(operatorID, StateIdle, domain.Pack{})
	c.notify(ctx, chatID, "That was the last new pack. Run /search again.")
}

func (c *Curator) showPreview(ctx context.Context, chatID int64, pack domain.Pack) {
	text, _ := c.styler.Render(ctx, pack)
	if err := c.transport.ShowPreview(ctx, chatID, text, pack.ImageURL(), pack.DownloadURL); err != nil {
		c.warn("show preview", "pack", pack.UID(), "error", err)
	}
}

func (c *Curator) fetchImage(ctx context.Context, pack domain.Pack) string {
	if c.images == nil {
		return ""
	}
	return c.images.Fetch(ctx, pack.ImageURL(), pack.UID())
}

// mark records the pack as terminally processed. Exactly one mark happens
// per pack, at the end of its processing path.
func (c *Curator) mark(ctx context.Context, pack domain.Pack) {
	if c.dedup == nil {
		return
	}
	if err := c.dedup.Mark(ctx, pack.UID()); err != nil {
		c.warn("mark pack", "pack", pack.UID(), "error", err)
	}
}

// Notify sends a plain service message to an operator chat.
func (c *Curator) Notify(ctx context.Context, chatID int64, text string) error {
	return c.transport.Notify(ctx, chatID, text)
}

func (c *Curator) notify(ctx context.Context, chatID int64, text string) {
	if err := c.transport.Notify(ctx, chatID, text); err != nil {
		c.warn("notify operator", "error", err)
	}
}

func (c *Curator) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
