package domain

import (
	"strings"
	"time"
)

// DefaultLastSeenAge is the lastSeen backfill used when nothing better is known.
const DefaultLastSeenAge = 24 * time.Hour

// Snapshot is one fetched point-in-time state of a watched channel. A new
// Snapshot supersedes the previous one; snapshots are never mutated after the
// pipeline hands them out.
type Snapshot struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"display_name"`
	IsLive        bool       `json:"is_live"`
	Title         string     `json:"title"`
	ViewerCount   int        `json:"viewer_count"`
	Category      string     `json:"category,omitempty"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	FollowerCount int        `json:"follower_count"`
	Verified      bool       `json:"verified"`
	Language      string     `json:"language"`
	LiveSince     *time.Time `json:"live_since,omitempty"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	Tags          []string   `json:"tags"`
	MatureContent bool       `json:"mature_content"`
	FetchError    bool       `json:"fetch_error"`
	FetchedAt     time.Time  `json:"fetched_at"`
}

// NormalizeID lowercases and trims an identifier.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NewFallbackSnapshot builds the offline-shaped placeholder returned when a
// channel could not be fetched.
func NewFallbackSnapshot(id string, lastSeen *time.Time, now time.Time) *Snapshot {
	id = NormalizeID(id)
	seen := now.Add(-DefaultLastSeenAge)
	if lastSeen != nil && !lastSeen.IsZero() {
		seen = *lastSeen
	}
	return &Snapshot{
		ID:          id,
		DisplayName: id,
		Tags:        []string{},
		LastSeen:    &seen,
		FetchError:  true,
		FetchedAt:   now,
	}
}

// Name is the label used for sorting and display.
func (s *Snapshot) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}

// LiveDuration is how long the channel has been live at now. Offline channels
// and live channels without a start time report zero.
func (s *Snapshot) LiveDuration(now time.Time) time.Duration {
	if !s.IsLive || s.LiveSince == nil {
		return 0
	}
	if d := now.Sub(*s.LiveSince); d > 0 {
		return d
	}
	return 0
}

// OfflineFor is how long ago the channel was last seen live. Live channels
// report zero; offline channels with no lastSeen sort as the oldest.
func (s *Snapshot) OfflineFor(now time.Time) time.Duration {
	if s.IsLive {
		return 0
	}
	if s.LastSeen == nil {
		return time.Duration(1<<63 - 1)
	}
	if d := now.Sub(*s.LastSeen); d > 0 {
		return d
	}
	return 0
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.LiveSince != nil {
		t := *s.LiveSince
		c.LiveSince = &t
	}
	if s.LastSeen != nil {
		t := *s.LastSeen
		c.LastSeen = &t
	}
	c.Tags = append([]string{}, s.Tags...)
	return &c
}
