package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PackCurator/internal/domain"
	"PackCurator/internal/ports"
)

// Store persists the scheduled post queue as a single JSON file. Every
// mutation is a full load-modify-save cycle guarded by a mutex, so the
// poller and operator actions cannot interleave their rewrites.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

var _ ports.QueueStore = (*Store)(nil)

// NewStore wires the queue file path; the file is created lazily.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Enqueue appends a post and rewrites the persisted queue.
func (s *Store) Enqueue(post domain.QueuedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load()
	posts = append(posts, post)
	return s.save(posts)
}

// DrainDue removes and returns every post whose scheduled time has passed,
// preserving queue order. This is a destructive read: returned posts are no
// longer persisted. When nothing is due the file is left untouched.
func (s *Store) DrainDue(now time.Time) ([]domain.QueuedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := s.load()
	var due, remaining []domain.QueuedPost
	for _, post := range posts {
		if !post.ScheduledTime.After(now) {
			due = append(due, post)
		} else {
			remaining = append(remaining, post)
		}
	}

	if len(due) == 0 {
		return nil, nil
	}

	if err := s.save(remaining); err != nil {
		return nil, err
	}
	return due, nil
}

// List returns a read-only snapshot of the persisted queue.
func (s *Store) List() ([]domain.QueuedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(), nil
}

// load reads the queue file. A missing file is an empty queue; an
// unparseable one is logged and also treated as empty rather than fatal.
func (s *Store) load() []domain.QueuedPost {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warn("read queue file", "path", s.path, "error", err)
		}
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var posts []domain.QueuedPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		s.warn("queue file corrupt, starting empty", "path", s.path, "error", err)
		return nil
	}
	return posts
}

// save rewrites the whole queue through a temp file and rename so a crash
// mid-write cannot leave a half-written queue behind.
func (s *Store) save(posts []domain.QueuedPost) error {
	if posts == nil {
		posts = []domain.QueuedPost{}
	}

	raw, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".queue-*.json")
	if err != nil {
		return fmt.Errorf("create temp queue file: %w", err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp queue file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace queue file: %w", err)
	}
	return nil
}

func (s *Store) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
