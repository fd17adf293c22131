package domain

import "time"

// ViewerSample is one viewer-count observation.
type ViewerSample struct {
	At      time.Time `json:"at"`
	Viewers int       `json:"viewers"`
}

// StatusChange is appended whenever a channel flips between live and offline.
type StatusChange struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	IsLive   bool      `json:"is_live"`
	Viewers  int       `json:"viewers"`
	Title    string    `json:"title,omitempty"`
	Category string    `json:"category,omitempty"`
	// First marks the very first observation of a channel.
	First bool `json:"first,omitempty"`
}

// Session is one contiguous live interval. EndTime is nil while in progress.
type Session struct {
	ID             string         `json:"id"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        *time.Time     `json:"end_time,omitempty"`
	StartViewers   int            `json:"start_viewers"`
	PeakViewers    int            `json:"peak_viewers"`
	EndViewers     *int           `json:"end_viewers,omitempty"`
	LastViewers    int            `json:"last_viewers"`
	Category       string         `json:"category,omitempty"`
	Title          string         `json:"title,omitempty"`
	ViewerSamples  []ViewerSample `json:"viewer_samples"`
	Duration       time.Duration  `json:"duration"`
	AverageViewers float64        `json:"average_viewers"`
}

func (s *Session) Open() bool { return s.EndTime == nil }

// Elapsed is the session length, measured up to now while still open.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.Duration
	}
	if d := now.Sub(s.StartTime); d > 0 {
		return d
	}
	return 0
}

// MeanViewers averages the session's samples, falling back to the stored
// average for closed sessions without samples.
func (s *Session) MeanViewers() float64 {
	if len(s.ViewerSamples) == 0 {
		return s.AverageViewers
	}
	total := 0
	for _, v := range s.ViewerSamples {
		total += v.Viewers
	}
	return float64(total) / float64(len(s.ViewerSamples))
}

// StreamerHistory is the per-channel aggregate maintained by the history
// aggregator. At most one session is open at any time.
type StreamerHistory struct {
	ID              string         `json:"id"`
	Sessions        []*Session     `json:"sessions"`
	ViewerHistory   []ViewerSample `json:"viewer_history"`
	StatusChanges   []StatusChange `json:"status_changes"`
	TotalStreamTime time.Duration  `json:"total_stream_time"`
	AverageViewers  float64        `json:"average_viewers"`
	PeakViewers     int            `json:"peak_viewers"`
	StreamCount     int            `json:"stream_count"`
	LastSeen        *time.Time     `json:"last_seen,omitempty"`
}

func NewStreamerHistory(id string) *StreamerHistory {
	return &StreamerHistory{
		ID:            NormalizeID(id),
		Sessions:      []*Session{},
		ViewerHistory: []ViewerSample{},
		StatusChanges: []StatusChange{},
	}
}

// OpenSession returns the in-progress session, if any.
func (h *StreamerHistory) OpenSession() *Session {
	for i := len(h.Sessions) - 1; i >= 0; i-- {
		if h.Sessions[i].Open() {
			return h.Sessions[i]
		}
	}
	return nil
}

// LastStatus returns the most recent recorded status change.
func (h *StreamerHistory) LastStatus() (StatusChange, bool) {
	if len(h.StatusChanges) == 0 {
		return StatusChange{}, false
	}
	return h.StatusChanges[len(h.StatusChanges)-1], true
}

// Clone returns a deep copy so callers can read it without holding locks.
func (h *StreamerHistory) Clone() *StreamerHistory {
	if h == nil {
		return nil
	}
	c := *h
	c.Sessions = make([]*Session, len(h.Sessions))
	for i, s := range h.Sessions {
		sc := *s
		if s.EndTime != nil {
			t := *s.EndTime
			sc.EndTime = &t
		}
		if s.EndViewers != nil {
			v := *s.EndViewers
			sc.EndViewers = &v
		}
		sc.ViewerSamples = append([]ViewerSample{}, s.ViewerSamples...)
		c.Sessions[i] = &sc
	}
	c.ViewerHistory = append([]ViewerSample{}, h.ViewerHistory...)
	c.StatusChanges = append([]StatusChange{}, h.StatusChanges...)
	if h.LastSeen != nil {
		t := *h.LastSeen
		c.LastSeen = &t
	}
	return &c
}
