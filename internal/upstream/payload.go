package upstream

import (
	"bytes"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

// ChannelPayload is the subset of GET /channels/{id} that livewatch reads.
type ChannelPayload struct {
	ID             int64              `json:"id"`
	Slug           string             `json:"slug"`
	FollowersCount int                `json:"followers_count"`
	Verified       json.RawMessage    `json:"verified"`
	User           *UserPayload       `json:"user"`
	Livestream     *LivestreamPayload `json:"livestream"`
}

type UserPayload struct {
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`
}

type LivestreamPayload struct {
	// IsLive is optional; a livestream object without it counts as live.
	IsLive       *bool             `json:"is_live"`
	SessionTitle string            `json:"session_title"`
	ViewerCount  int               `json:"viewer_count"`
	CreatedAt    string            `json:"created_at"`
	StartTime    string            `json:"start_time"`
	Language     string            `json:"language"`
	IsMature     bool              `json:"is_mature"`
	Tags         []string          `json:"tags"`
	Thumbnail    *ThumbnailPayload `json:"thumbnail"`
	Categories   []CategoryPayload `json:"categories"`
}

type ThumbnailPayload struct {
	URL string `json:"url"`
	Src string `json:"src"`
}

type CategoryPayload struct {
	Name string `json:"name"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Snapshot maps the payload onto a snapshot for id. Absent optional fields
// take their zero value; counts are clamped at zero. LastSeen is left for the
// caller, which owns the persisted last-known value.
func (p *ChannelPayload) Snapshot(id string, fetchedAt time.Time) *domain.Snapshot {
	s := &domain.Snapshot{
		ID:            domain.NormalizeID(id),
		FollowerCount: max(p.FollowersCount, 0),
		Verified:      truthy(p.Verified),
		Tags:          []string{},
		FetchedAt:     fetchedAt,
	}

	s.DisplayName = s.ID
	if p.Slug != "" {
		s.DisplayName = p.Slug
	}
	if p.User != nil {
		if p.User.Username != "" {
			s.DisplayName = p.User.Username
		}
		s.AvatarURL = p.User.ProfilePic
	}

	ls := p.Livestream
	if ls == nil || (ls.IsLive != nil && !*ls.IsLive) {
		return s
	}

	s.IsLive = true
	s.Title = strings.TrimSpace(ls.SessionTitle)
	s.ViewerCount = max(ls.ViewerCount, 0)
	s.Language = ls.Language
	s.MatureContent = ls.IsMature
	if len(ls.Tags) > 0 {
		s.Tags = append(s.Tags, ls.Tags...)
	}
	if ls.Thumbnail != nil {
		s.ThumbnailURL = ls.Thumbnail.URL
		if s.ThumbnailURL == "" {
			s.ThumbnailURL = ls.Thumbnail.Src
		}
	}
	for _, c := range ls.Categories {
		if c.Name != "" {
			s.Category = c.Name
			break
		}
	}
	for _, raw := range []string{ls.StartTime, ls.CreatedAt} {
		if t, ok := parseTime(raw); ok {
			s.LiveSince = &t
			break
		}
	}
	return s
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truthy treats any JSON value other than null/false/empty as set; upstream
// reports verification either as a bool or as an object.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) > 0 && !bytes.Equal(v, []byte("null")) && !bytes.Equal(v, []byte("false"))
}
