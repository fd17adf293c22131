package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

// MemoryIndex holds the latest snapshot of every watched channel, in
// watchlist order. It is replaced wholesale on each refresh.
type MemoryIndex struct {
	mu          sync.RWMutex
	snapshots   map[string]*domain.Snapshot // ID -> Snapshot
	order       []string
	lastRefresh time.Time
	secondary   *SecondaryIndex // built lazily, dropped on every write
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		snapshots: make(map[string]*domain.Snapshot),
	}
}

// Replace swaps in a new snapshot collection. order lists ids in display
// order; snapshots missing from order are appended after it.
func (idx *MemoryIndex) Replace(snapshots []*domain.Snapshot, order []string, at time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.snapshots = make(map[string]*domain.Snapshot, len(snapshots))
	for _, s := range snapshots {
		if s != nil {
			idx.snapshots[s.ID] = s
		}
	}
	idx.order = make([]string, 0, len(snapshots))
	seen := make(map[string]bool, len(snapshots))
	for _, id := range order {
		if _, ok := idx.snapshots[id]; ok && !seen[id] {
			idx.order = append(idx.order, id)
			seen[id] = true
		}
	}
	for _, s := range snapshots {
		if s != nil && !seen[s.ID] {
			idx.order = append(idx.order, s.ID)
			seen[s.ID] = true
		}
	}
	idx.lastRefresh = at
	idx.secondary = nil
}

// Put adds or replaces one snapshot, keeping its position if already present.
func (idx *MemoryIndex) Put(s *domain.Snapshot) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.snapshots[s.ID]; !ok {
		idx.order = append(idx.order, s.ID)
	}
	idx.snapshots[s.ID] = s
	idx.secondary = nil
}

func (idx *MemoryIndex) Get(id string) (*domain.Snapshot, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s, ok := idx.snapshots[id]
	return s, ok
}

// All returns the snapshots in display order.
func (idx *MemoryIndex) All() []*domain.Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*domain.Snapshot, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.snapshots[id])
	}
	return out
}

// Delete removes id and reports whether it was present.
func (idx *MemoryIndex) Delete(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.snapshots[id]; !ok {
		return false
	}
	delete(idx.snapshots, id)
	for i, o := range idx.order {
		if o == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
	idx.secondary = nil
	return true
}

// Retain drops every snapshot whose id is not in keep and returns how many were removed.
func (idx *MemoryIndex) Retain(keep []string) int {
	allowed := make(map[string]bool, len(keep))
	for _, id := range keep {
		allowed[id] = true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	order := idx.order[:0]
	for _, id := range idx.order {
		if allowed[id] {
			order = append(order, id)
			continue
		}
		delete(idx.snapshots, id)
		removed++
	}
	idx.order = order
	if removed > 0 {
		idx.secondary = nil
	}
	return removed
}

func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.snapshots)
}

// LiveCount counts snapshots currently live.
func (idx *MemoryIndex) LiveCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, s := range idx.snapshots {
		if s.IsLive {
			n++
		}
	}
	return n
}

func (idx *MemoryIndex) LastRefresh() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRefresh
}

// Secondary returns the secondary index for the current collection, building
// it on first use after a write.
func (idx *MemoryIndex) Secondary() *SecondaryIndex {
	idx.mu.RLock()
	sec := idx.secondary
	idx.mu.RUnlock()
	if sec != nil {
		return sec
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.secondary == nil {
		list := make([]*domain.Snapshot, 0, len(idx.order))
		for _, id := range idx.order {
			list = append(list, idx.snapshots[id])
		}
		idx.secondary = NewSecondaryIndex(list)
	}
	return idx.secondary
}
