package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"PackCurator/internal/ports"
)

// FileDedup keeps processed pack ids in a newline-delimited append-only
// log, mirrored by an in-memory set rebuilt on startup by replaying the
// log. Presence, not line count, defines membership, so a duplicate log
// line is harmless.
type FileDedup struct {
	mu   sync.Mutex
	path string
	seen map[string]struct{}
}

var _ ports.DedupStore = (*FileDedup)(nil)

// NewFileDedup replays the log at path; a missing log is an empty store.
func NewFileDedup(path string) (*FileDedup, error) {
	store := &FileDedup{path: path, seen: map[string]struct{}{}}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("open dedup log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id != "" {
			store.seen[id] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay dedup log: %w", err)
	}

	return store, nil
}

// IsMarked reports whether the id has been terminally processed.
func (s *FileDedup) IsMarked(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]
	return ok
}

// Mark appends the id to the log and the in-memory set. Calling it again
// with the same id is a no-op.
func (s *FileDedup) Mark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open dedup log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, id); err != nil {
		return fmt.Errorf("append dedup log: %w", err)
	}

	s.seen[id] = struct{}{}
	return nil
}
