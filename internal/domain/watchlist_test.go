package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestWatchlistNormalizesAndDedupes(t *testing.T) {
	w := NewWatchlist([]string{" Alice", "bob", "ALICE", "", "carol "})
	if diff := cmp.Diff([]string{"alice", "bob", "carol"}, w.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}

	if w.Add("Bob") {
		t.Error("Add() of an existing id should report false")
	}
	if !w.Remove(" CAROL") {
		t.Error("Remove() should find a normalized id")
	}
	if w.Contains("carol") || w.Len() != 2 {
		t.Errorf("after Remove() ids = %v", w.IDs())
	}
}

func TestFallbackSnapshot(t *testing.T) {
	s := NewFallbackSnapshot(" Alice ", nil, now)
	if s.ID != "alice" || !s.FetchError || s.IsLive {
		t.Errorf("NewFallbackSnapshot() = %+v", s)
	}
	if s.LastSeen == nil || !s.LastSeen.Equal(now.Add(-24*time.Hour)) {
		t.Errorf("LastSeen = %v, want now-24h", s.LastSeen)
	}

	seen := now.Add(-time.Hour)
	s = NewFallbackSnapshot("alice", &seen, now)
	if !s.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", s.LastSeen, seen)
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	seen := now
	s := &Snapshot{ID: "a", Tags: []string{"x"}, LastSeen: &seen}
	c := s.Clone()
	c.Tags[0] = "y"
	*c.LastSeen = now.Add(time.Hour)
	if s.Tags[0] != "x" || !s.LastSeen.Equal(now) {
		t.Error("Clone() shares memory with the original")
	}
}
