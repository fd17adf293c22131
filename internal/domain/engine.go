package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Apply returns the snapshots of list that satisfy state, ordered by its sort
// key. list is never modified; the result is a new slice holding the same
// pointers.
func Apply(list []*Snapshot, state FilterState, now time.Time) []*Snapshot {
	state.Validate()

	out := make([]*Snapshot, 0, len(list))
	for _, s := range list {
		if s != nil && Matches(s, state, now) {
			out = append(out, s)
		}
	}
	Sort(out, state.Sort, state.Direction, now)
	return out
}

// Matches reports whether s passes every active predicate of state. Predicates
// compose with AND; a dimension set to "all" accepts everything. state is
// expected to be validated.
func Matches(s *Snapshot, state FilterState, now time.Time) bool {
	return matchStatus(s, state.Status) &&
		matchViewers(s, state.Viewers) &&
		matchCategory(s, state.Category) &&
		matchLanguage(s, state.Language) &&
		matchDuration(s, state.Duration, now) &&
		matchSearch(s, state.Search)
}

func matchStatus(s *Snapshot, f StatusFilter) bool {
	switch f {
	case StatusLive:
		return s.IsLive
	case StatusOffline:
		return !s.IsLive
	default:
		return true
	}
}

func matchViewers(s *Snapshot, b ViewerBucket) bool {
	if b == ViewersAll || b == "" {
		return true
	}
	return ViewerBucketOf(s.ViewerCount) == b
}

func matchCategory(s *Snapshot, category string) bool {
	if category == "" || category == AllValues {
		return true
	}
	return strings.EqualFold(s.Category, category)
}

func matchLanguage(s *Snapshot, language string) bool {
	if language == "" || language == AllValues {
		return true
	}
	return strings.EqualFold(s.Language, language)
}

func matchDuration(s *Snapshot, b DurationBucket, now time.Time) bool {
	if b == DurationAll || b == "" {
		return true
	}
	return DurationBucketOf(s, now) == b
}

func matchSearch(s *Snapshot, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{s.ID, s.DisplayName, s.Title, s.Category}, " "))
	return strings.Contains(haystack, q)
}

// Sort orders list in place with a stable sort. Descending flips the whole
// comparator, tie-breaks included.
func Sort(list []*Snapshot, key SortKey, dir Direction, now time.Time) {
	less := comparator(key, now)
	if dir == Descending {
		asc := less
		less = func(a, b *Snapshot) int { return asc(b, a) }
	}
	slices.SortStableFunc(list, less)
}

func comparator(key SortKey, now time.Time) func(a, b *Snapshot) int {
	switch key {
	case SortViewers:
		return func(a, b *Snapshot) int {
			return cmp.Or(cmp.Compare(a.ViewerCount, b.ViewerCount), byName(a, b))
		}
	case SortName:
		return byName
	case SortCategory:
		return func(a, b *Snapshot) int {
			return cmp.Or(cmp.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category)), byName(a, b))
		}
	case SortDuration:
		return func(a, b *Snapshot) int {
			return cmp.Or(cmp.Compare(a.LiveDuration(now), b.LiveDuration(now)), byName(a, b))
		}
	case SortLastSeen:
		return func(a, b *Snapshot) int {
			return cmp.Or(cmp.Compare(a.OfflineFor(now), b.OfflineFor(now)), byName(a, b))
		}
	case SortFollowers:
		return func(a, b *Snapshot) int {
			return cmp.Or(cmp.Compare(a.FollowerCount, b.FollowerCount), byName(a, b))
		}
	default:
		return byStatus
	}
}

// byStatus puts live channels first, then more viewers first, then by name.
func byStatus(a, b *Snapshot) int {
	if a.IsLive != b.IsLive {
		if a.IsLive {
			return -1
		}
		return 1
	}
	return cmp.Or(cmp.Compare(b.ViewerCount, a.ViewerCount), byName(a, b))
}

func byName(a, b *Snapshot) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name())),
		cmp.Compare(a.ID, b.ID),
	)
}

// Facet counts how many snapshots share a category.
type Facet struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Live     int    `json:"live"`
}

// Facets summarizes categories across list, most common first.
func Facets(list []*Snapshot) []Facet {
	byCategory := make(map[string]*Facet)
	for _, s := range list {
		if s == nil || s.Category == "" {
			continue
		}
		f, ok := byCategory[strings.ToLower(s.Category)]
		if !ok {
			f = &Facet{Category: s.Category}
			byCategory[strings.ToLower(s.Category)] = f
		}
		f.Count++
		if s.IsLive {
			f.Live++
		}
	}

	out := make([]Facet, 0, len(byCategory))
	for _, f := range byCategory {
		out = append(out, *f)
	}
	slices.SortFunc(out, func(a, b Facet) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category)))
	})
	return out
}
