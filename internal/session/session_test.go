package session

import (
	"testing"

	"PackCurator/internal/domain"
)

func packs(slugs ...string) []domain.Pack {
	out := make([]domain.Pack, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, domain.Pack{Slug: slug, Platform: "modrinth", Title: slug})
	}
	return out
}

func TestEmptySession(t *testing.T) {
	t.Parallel()

	var s Session
	if _, ok := s.Current(); ok {
		t.Fatal("empty session should have no current pack")
	}
	if s.HasNext() {
		t.Fatal("empty session should have no next pack")
	}
	if _, ok := s.Advance(); ok {
		t.Fatal("advance on empty session should report false")
	}
}

func TestAdvanceStopsAtLast(t *testing.T) {
	t.Parallel()

	var s Session
	s.SetResults(packs("a", "b", "c"))

	current, ok := s.Current()
	if !ok || current.Slug != "a" {
		t.Fatalf("expected current a, got %v %v", current.Slug, ok)
	}

	next, ok := s.Advance()
	if !ok || next.Slug != "b" {
		t.Fatalf("expected advance to b, got %v %v", next.Slug, ok)
	}

	if _, ok := s.Advance(); !ok {
		t.Fatal("expected advance to c")
	}
	if s.HasNext() {
		t.Fatal("cursor on last pack, HasNext must be false")
	}

	// Repeated advances past the end keep the cursor on the last pack.
	for i := 0; i < 3; i++ {
		if _, ok := s.Advance(); ok {
			t.Fatal("advance past the last pack must report false")
		}
	}
	current, ok = s.Current()
	if !ok || current.Slug != "c" {
		t.Fatalf("cursor moved past the end: %v %v", current.Slug, ok)
	}
}

func TestSetResultsReplacesWholesale(t *testing.T) {
	t.Parallel()

	var s Session
	s.SetResults(packs("a", "b"))
	s.Advance()

	s.SetResults(packs("x"))
	current, ok := s.Current()
	if !ok || current.Slug != "x" {
		t.Fatalf("expected cursor reset to x, got %v %v", current.Slug, ok)
	}
	if s.HasNext() {
		t.Fatal("single-item result set has no next")
	}
	if s.Len() != 1 {
		t.Fatalf("expected len 1, got %d", s.Len())
	}
}

func TestRegistryKeysByOperator(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	first := reg.Get(100)
	first.SetResults(packs("a"))

	second := reg.Get(200)
	if _, ok := second.Current(); ok {
		t.Fatal("second operator must get a fresh session")
	}

	if reg.Get(100) != first {
		t.Fatal("registry must return the same session for the same operator")
	}
}
