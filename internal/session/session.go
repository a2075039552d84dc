package session

import (
	"sync"

	"PackCurator/internal/domain"
)

// Session holds one operator's review cursor over a search result set.
// The result set is replaced wholesale by each new search; there is no
// going back to an item the cursor has passed.
type Session struct {
	packs  []domain.Pack
	cursor int
}

// SetResults replaces the result set and resets the cursor.
func (s *Session) SetResults(packs []domain.Pack) {
	s.packs = packs
	s.cursor = 0
}

// Current returns the pack under the cursor, or false when the session is
// empty or exhausted.
func (s *Session) Current() (domain.Pack, bool) {
	if s.cursor < len(s.packs) {
		return s.packs[s.cursor], true
	}
	return domain.Pack{}, false
}

// Advance moves the cursor to the next pack and returns it. When the
// cursor is already on the last pack it stays put and reports false.
func (s *Session) Advance() (domain.Pack, bool) {
	if !s.HasNext() {
		return domain.Pack{}, false
	}
	s.cursor++
	return s.packs[s.cursor], true
}

// HasNext reports whether a pack follows the current cursor position.
func (s *Session) HasNext() bool {
	return s.cursor < len(s.packs)-1
}

// Len returns the size of the current result set.
func (s *Session) Len() int {
	return len(s.packs)
}

// Registry maps operator ids to their sessions. Sessions live for the
// process lifetime; a restart loses them, which is acceptable because a
// session is rebuilt by re-running the search.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewRegistry builds an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[int64]*Session{}}
}

// Get returns the operator's session, creating it on first use.
func (r *Registry) Get(operatorID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[operatorID]
	if !ok {
		s = &Session{}
		r.sessions[operatorID] = s
	}
	return s
}
