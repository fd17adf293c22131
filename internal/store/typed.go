package store

import (
	"context"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

// Settings returns the persisted settings, or the defaults.
func (s *Store) Settings(ctx context.Context) domain.Settings {
	settings := domain.DefaultSettings()
	if !s.Get(ctx, KeySettings, &settings) {
		return domain.DefaultSettings()
	}
	settings.Normalize()
	return settings
}

func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) bool {
	return s.Set(ctx, KeySettings, settings)
}

// Filters returns the persisted filter state, if any. It is not validated.
func (s *Store) Filters(ctx context.Context) (domain.FilterState, bool) {
	var f domain.FilterState
	if !s.Get(ctx, KeyFilters, &f) {
		return domain.DefaultFilterState(), false
	}
	return f, true
}

func (s *Store) SaveFilters(ctx context.Context, f domain.FilterState) bool {
	return s.Set(ctx, KeyFilters, f)
}

// Watchlist returns the last known watchlist.
func (s *Store) Watchlist(ctx context.Context) ([]string, bool) {
	var ids []string
	if !s.Get(ctx, KeyWatchlist, &ids) {
		return nil, false
	}
	return ids, true
}

func (s *Store) SaveWatchlist(ctx context.Context, ids []string) bool {
	return s.Set(ctx, KeyWatchlist, ids)
}

func (s *Store) LastSeen(ctx context.Context, id string) (time.Time, bool) {
	var t time.Time
	if !s.Get(ctx, LastSeenKey(domain.NormalizeID(id)), &t) || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func (s *Store) SetLastSeen(ctx context.Context, id string, at time.Time) bool {
	return s.Set(ctx, LastSeenKey(domain.NormalizeID(id)), at.UTC())
}

// History loads the zstd-compressed history map.
func (s *Store) History(ctx context.Context) (map[string]*domain.StreamerHistory, bool) {
	raw, ok := s.getRaw(ctx, KeyHistory)
	if !ok {
		return nil, false
	}
	data, err := s.zstd.Decompress(raw)
	if err != nil {
		s.warn("history.decompress", KeyHistory, err)
		return nil, false
	}
	var out map[string]*domain.StreamerHistory
	if err := json.Unmarshal(data, &out); err != nil {
		s.warn("history.decode", KeyHistory, err)
		return nil, false
	}
	if out == nil {
		out = map[string]*domain.StreamerHistory{}
	}
	return out, true
}

func (s *Store) SaveHistory(ctx context.Context, h map[string]*domain.StreamerHistory) bool {
	data, err := json.Marshal(h)
	if err != nil {
		s.warn("history.encode", KeyHistory, err)
		return false
	}
	return s.setRaw(ctx, KeyHistory, s.zstd.Compress(data))
}
