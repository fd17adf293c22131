package index

import (
	"strings"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

// SecondaryIndex keeps postings for the indexable filter dimensions (status,
// category, viewer bucket) over an immutable snapshot list. Search, duration
// and language are evaluated by scanning the narrowed candidates.
type SecondaryIndex struct {
	list       []*domain.Snapshot
	live       []int
	offline    []int
	byCategory map[string][]int
	byBucket   map[domain.ViewerBucket][]int
}

// NewSecondaryIndex indexes list. list must not be modified afterwards.
func NewSecondaryIndex(list []*domain.Snapshot) *SecondaryIndex {
	idx := &SecondaryIndex{
		list:       list,
		byCategory: make(map[string][]int),
		byBucket:   make(map[domain.ViewerBucket][]int, len(domain.ViewerBuckets)),
	}
	for i, s := range list {
		if s == nil {
			continue
		}
		if s.IsLive {
			idx.live = append(idx.live, i)
		} else {
			idx.offline = append(idx.offline, i)
		}
		cat := strings.ToLower(s.Category)
		idx.byCategory[cat] = append(idx.byCategory[cat], i)
		b := domain.ViewerBucketOf(s.ViewerCount)
		idx.byBucket[b] = append(idx.byBucket[b], i)
	}
	return idx
}

func (idx *SecondaryIndex) Len() int { return len(idx.list) }

// Query returns exactly what domain.Apply would for the indexed list.
func (idx *SecondaryIndex) Query(state domain.FilterState, now time.Time) []*domain.Snapshot {
	state.Validate()

	candidates, narrowed := idx.candidates(state)
	out := make([]*domain.Snapshot, 0, len(candidates))
	if !narrowed {
		for _, s := range idx.list {
			if s != nil && domain.Matches(s, state, now) {
				out = append(out, s)
			}
		}
	} else {
		for _, i := range candidates {
			if s := idx.list[i]; domain.Matches(s, state, now) {
				out = append(out, s)
			}
		}
	}
	domain.Sort(out, state.Sort, state.Direction, now)
	return out
}

// candidates intersects the postings of every active indexable dimension.
// Postings are ascending, so the intersection preserves input order.
func (idx *SecondaryIndex) candidates(state domain.FilterState) ([]int, bool) {
	var lists [][]int

	switch state.Status {
	case domain.StatusLive:
		lists = append(lists, idx.live)
	case domain.StatusOffline:
		lists = append(lists, idx.offline)
	}
	if state.Category != domain.AllValues && state.Category != "" {
		lists = append(lists, idx.byCategory[strings.ToLower(state.Category)])
	}
	if state.Viewers != domain.ViewersAll && state.Viewers != "" {
		lists = append(lists, idx.byBucket[state.Viewers])
	}

	if len(lists) == 0 {
		return nil, false
	}
	result := lists[0]
	for _, next := range lists[1:] {
		result = intersect(result, next)
	}
	return result, true
}

func intersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
