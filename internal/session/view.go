package session

import (
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

// Entry is a snapshot as shown on the dashboard.
type Entry struct {
	*domain.Snapshot
	Favorite bool `json:"favorite"`
}

// View is the filtered dashboard plus its status bar.
type View struct {
	Streamers   []Entry             `json:"streamers"`
	Filter      domain.FilterState  `json:"filter"`
	Corrections []domain.Correction `json:"corrections,omitempty"`
	Total       int                 `json:"total"`
	Live        int                 `json:"live"`
	Matched     int                 `json:"matched"`
	Facets      []domain.Facet      `json:"facets"`
	LastRefresh RefreshResult       `json:"last_refresh"`
	Indexed     bool                `json:"indexed"`
}

// View evaluates state (the session filter when nil) against the current
// snapshots. state is validated on a copy; the session filter is untouched.
func (s *Session) View(state *domain.FilterState, now time.Time) View {
	f := s.Filter()
	if state != nil {
		f = *state
	}
	corrections := f.Validate()

	all := s.index.All()
	v := View{
		Filter:      f,
		Corrections: corrections,
		Total:       len(all),
		Live:        s.index.LiveCount(),
		Facets:      domain.Facets(all),
		LastRefresh: s.LastRefresh(),
	}

	var matched []*domain.Snapshot
	if len(all) >= s.indexThreshold {
		matched = s.index.Secondary().Query(f, now)
		v.Indexed = true
	} else {
		matched = domain.Apply(all, f, now)
	}

	s.mu.RLock()
	v.Streamers = make([]Entry, 0, len(matched))
	for _, snap := range matched {
		v.Streamers = append(v.Streamers, Entry{Snapshot: snap, Favorite: s.favorites[snap.ID]})
	}
	s.mu.RUnlock()

	v.Matched = len(v.Streamers)
	return v
}

// Facets lists categories across every current snapshot.
func (s *Session) Facets() []domain.Facet {
	return domain.Facets(s.index.All())
}

// Stats is a cheap summary for health endpoints.
type Stats struct {
	Watched     int           `json:"watched"`
	Snapshots   int           `json:"snapshots"`
	Live        int           `json:"live"`
	Favorites   int           `json:"favorites"`
	LastRefresh RefreshResult `json:"last_refresh"`
}

func (s *Session) Stats() Stats {
	s.mu.RLock()
	st := Stats{Watched: s.watchlist.Len(), Favorites: len(s.favorites), LastRefresh: s.last}
	s.mu.RUnlock()

	st.Snapshots = s.index.Count()
	st.Live = s.index.LiveCount()
	return st
}
