package index

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

var refreshed = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func idsOf(list []*domain.Snapshot) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func TestNewMemoryIndex(t *testing.T) {
	idx := NewMemoryIndex()
	if idx == nil {
		t.Fatal("NewMemoryIndex() returned nil")
	}
	if got := len(idx.All()); got != 0 {
		t.Errorf("NewMemoryIndex() should start empty, got %d snapshots", got)
	}
	if !idx.LastRefresh().IsZero() {
		t.Error("LastRefresh() should be zero before any refresh")
	}
}

func TestReplaceFollowsWatchlistOrder(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Replace([]*domain.Snapshot{
		{ID: "carol"},
		{ID: "alice", IsLive: true},
		{ID: "bob"},
		{ID: "dave"},
	}, []string{"alice", "bob", "carol", "ghost"}, refreshed)

	if diff := cmp.Diff([]string{"alice", "bob", "carol", "dave"}, idsOf(idx.All())); diff != "" {
		t.Errorf("All() order mismatch (-want +got):\n%s", diff)
	}
	if idx.Count() != 4 || idx.LiveCount() != 1 {
		t.Errorf("Count() = %d, LiveCount() = %d, want 4 and 1", idx.Count(), idx.LiveCount())
	}
	if !idx.LastRefresh().Equal(refreshed) {
		t.Errorf("LastRefresh() = %v, want %v", idx.LastRefresh(), refreshed)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Replace([]*domain.Snapshot{{ID: "one"}}, nil, refreshed)
	idx.Replace([]*domain.Snapshot{{ID: "two"}, {ID: "three"}}, nil, refreshed)

	if _, ok := idx.Get("one"); ok {
		t.Error("Replace() should drop snapshots from the previous collection")
	}
	if idx.Count() != 2 {
		t.Errorf("Count() = %d, want 2", idx.Count())
	}
}

func TestPutDeleteRetain(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Replace([]*domain.Snapshot{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil, refreshed)

	idx.Put(&domain.Snapshot{ID: "b", IsLive: true})
	idx.Put(&domain.Snapshot{ID: "d"})
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, idsOf(idx.All())); diff != "" {
		t.Errorf("Put() order mismatch (-want +got):\n%s", diff)
	}
	if s, _ := idx.Get("b"); !s.IsLive {
		t.Error("Put() should replace the existing snapshot")
	}

	if !idx.Delete("a") || idx.Delete("a") {
		t.Error("Delete() should succeed once")
	}
	if removed := idx.Retain([]string{"b", "d"}); removed != 1 {
		t.Errorf("Retain() removed %d, want 1", removed)
	}
	if diff := cmp.Diff([]string{"b", "d"}, idsOf(idx.All())); diff != "" {
		t.Errorf("after Retain() (-want +got):\n%s", diff)
	}
}

func TestSecondaryRebuiltAfterWrite(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Replace([]*domain.Snapshot{{ID: "a"}}, nil, refreshed)
	first := idx.Secondary()
	if idx.Secondary() != first {
		t.Error("Secondary() should be reused while the collection is unchanged")
	}

	idx.Put(&domain.Snapshot{ID: "b"})
	if second := idx.Secondary(); second == first || second.Len() != 2 {
		t.Error("Secondary() should be rebuilt after a write")
	}
}

func TestConcurrentAccess(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Replace([]*domain.Snapshot{{ID: "a"}, {ID: "b"}}, nil, refreshed)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = idx.All()
			_ = idx.Secondary()
		}()
		go func(i int) {
			defer wg.Done()
			idx.Put(&domain.Snapshot{ID: "b", ViewerCount: i})
		}(i)
	}
	wg.Wait()

	if idx.Count() != 2 {
		t.Errorf("Count() after concurrent writes = %d, want 2", idx.Count())
	}
}
