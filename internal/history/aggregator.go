// Package history tracks per-channel live sessions, viewer samples and status
// changes, and derives analytics from them.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/events"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

const (
	// DefaultRetention is how long sessions, samples and status changes are kept.
	DefaultRetention = 30 * 24 * time.Hour
	// GlobalSampleInterval spaces the coarse per-channel viewer series.
	GlobalSampleInterval = 5 * time.Minute
	// SessionSampleInterval spaces the finer per-session viewer series.
	SessionSampleInterval = 2 * time.Minute
)

// Persister loads and saves the full history map.
type Persister interface {
	History(ctx context.Context) (map[string]*domain.StreamerHistory, bool)
	SaveHistory(ctx context.Context, h map[string]*domain.StreamerHistory) bool
}

type Options struct {
	Store     Persister
	Clock     clock.Clock
	Logger    logger.Logger
	Bus       *events.Bus
	Retention time.Duration
	// NewID generates session identifiers.
	NewID func() string
}

type Aggregator struct {
	mu        sync.Mutex
	histories map[string]*domain.StreamerHistory

	store     Persister
	clock     clock.Clock
	logger    logger.Logger
	bus       *events.Bus
	retention time.Duration
	newID     func() string
}

func New(opts Options) *Aggregator {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Aggregator{
		histories: map[string]*domain.StreamerHistory{},
		store:     opts.Store,
		clock:     opts.Clock,
		logger:    opts.Logger,
		bus:       opts.Bus,
		retention: opts.Retention,
		newID:     opts.NewID,
	}
}

// Record folds one snapshot into the channel's history and persists the whole
// map. It returns the status change it appended, or nil. Placeholder
// snapshots (FetchError) are ignored so a failed fetch never ends a session.
func (a *Aggregator) Record(ctx context.Context, snap *domain.Snapshot) *domain.StatusChange {
	if snap == nil || snap.FetchError {
		return nil
	}
	id := domain.NormalizeID(snap.ID)
	if id == "" {
		return nil
	}
	now := snap.FetchedAt
	if now.IsZero() {
		now = a.clock.Now()
	}
	viewers := max(snap.ViewerCount, 0)

	a.mu.Lock()
	h, ok := a.histories[id]
	if !ok {
		h = domain.NewStreamerHistory(id)
		a.histories[id] = h
	}

	var change *domain.StatusChange
	last, seen := h.LastStatus()
	if !seen || last.IsLive != snap.IsLive {
		sc := domain.StatusChange{
			ID:       id,
			At:       now,
			IsLive:   snap.IsLive,
			Viewers:  viewers,
			Title:    snap.Title,
			Category: snap.Category,
			First:    !seen,
		}
		h.StatusChanges = append(h.StatusChanges, sc)
		change = &sc

		if open := h.OpenSession(); open != nil {
			a.closeSession(h, open, now)
		}
		if snap.IsLive {
			a.openSession(h, snap, viewers, now)
		}
	}

	if snap.IsLive {
		sess := h.OpenSession()
		if sess == nil {
			sess = a.openSession(h, snap, viewers, now)
		}
		if sess.Category == "" {
			sess.Category = snap.Category
		}
		a.sample(h, sess, viewers, now)
		seenAt := now
		h.LastSeen = &seenAt
	}

	if viewers > h.PeakViewers {
		h.PeakViewers = viewers
	}
	a.persistLocked(ctx)
	a.mu.Unlock()

	if change != nil && a.bus != nil {
		a.bus.StatusChanged.Publish(*change)
	}
	return change
}

func (a *Aggregator) openSession(h *domain.StreamerHistory, snap *domain.Snapshot, viewers int, now time.Time) *domain.Session {
	sess := &domain.Session{
		ID:            a.newID(),
		StartTime:     now,
		StartViewers:  viewers,
		PeakViewers:   viewers,
		LastViewers:   viewers,
		Category:      snap.Category,
		Title:         snap.Title,
		ViewerSamples: []domain.ViewerSample{},
	}
	h.Sessions = append(h.Sessions, sess)
	// Counted at start so an in-progress stream already shows up in analytics.
	h.StreamCount++
	return sess
}

func (a *Aggregator) closeSession(h *domain.StreamerHistory, sess *domain.Session, now time.Time) {
	end := now
	endViewers := sess.LastViewers
	sess.EndTime = &end
	sess.EndViewers = &endViewers
	sess.Duration = max(end.Sub(sess.StartTime), 0)
	sess.AverageViewers = sess.MeanViewers()
	h.TotalStreamTime += sess.Duration
	h.AverageViewers = weightedAverage(h.Sessions)
}

func (a *Aggregator) sample(h *domain.StreamerHistory, sess *domain.Session, viewers int, now time.Time) {
	sess.LastViewers = viewers
	if viewers > sess.PeakViewers {
		sess.PeakViewers = viewers
	}
	s := domain.ViewerSample{At: now, Viewers: viewers}
	if n := len(h.ViewerHistory); n == 0 || now.Sub(h.ViewerHistory[n-1].At) >= GlobalSampleInterval {
		h.ViewerHistory = append(h.ViewerHistory, s)
	}
	if n := len(sess.ViewerSamples); n == 0 || now.Sub(sess.ViewerSamples[n-1].At) >= SessionSampleInterval {
		sess.ViewerSamples = append(sess.ViewerSamples, s)
	}
}

// weightedAverage is the duration-weighted mean viewer count of closed sessions.
func weightedAverage(sessions []*domain.Session) float64 {
	var weighted, total float64
	for _, s := range sessions {
		if s.Open() || s.Duration <= 0 {
			continue
		}
		w := s.Duration.Seconds()
		weighted += s.AverageViewers * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

func (a *Aggregator) persistLocked(ctx context.Context) {
	if a.store == nil {
		return
	}
	if !a.store.SaveHistory(ctx, a.histories) {
		a.logger.Warn("history not persisted", logger.Int("channels", len(a.histories)))
	}
}

// Get returns a copy of one channel's history.
func (a *Aggregator) Get(id string) (*domain.StreamerHistory, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.histories[domain.NormalizeID(id)]
	if !ok {
		return nil, false
	}
	return h.Clone(), true
}

// Analyze derives analytics for id over the last days.
func (a *Aggregator) Analyze(id string, days int) (domain.Analytics, bool) {
	h, ok := a.Get(id)
	if !ok {
		return domain.Analytics{}, false
	}
	return domain.Analyze(h, days, a.clock.Now()), true
}

// Load replaces the in-memory map with the persisted one.
func (a *Aggregator) Load(ctx context.Context) int {
	if a.store == nil {
		return 0
	}
	loaded, ok := a.store.History(ctx)
	if !ok {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories = sanitize(loaded)
	return len(a.histories)
}

// Export returns a deep copy of every history.
func (a *Aggregator) Export() map[string]*domain.StreamerHistory {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]*domain.StreamerHistory, len(a.histories))
	for id, h := range a.histories {
		out[id] = h.Clone()
	}
	return out
}

// Replace swaps the whole map, as on backup import, and persists it.
func (a *Aggregator) Replace(ctx context.Context, m map[string]*domain.StreamerHistory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.histories = sanitize(m)
	a.persistLocked(ctx)
}

// Forget drops one channel's history.
func (a *Aggregator) Forget(ctx context.Context, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	id = domain.NormalizeID(id)
	if _, ok := a.histories[id]; !ok {
		return false
	}
	delete(a.histories, id)
	a.persistLocked(ctx)
	return true
}

// Len reports how many channels have history.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.histories)
}

func sanitize(in map[string]*domain.StreamerHistory) map[string]*domain.StreamerHistory {
	out := make(map[string]*domain.StreamerHistory, len(in))
	for key, h := range in {
		if h == nil {
			continue
		}
		shallow := *h
		shallow.Sessions = lo.Compact(h.Sessions)
		c := shallow.Clone()
		if c.ID == "" {
			c.ID = key
		}
		c.ID = domain.NormalizeID(c.ID)
		if c.Sessions == nil {
			c.Sessions = []*domain.Session{}
		}
		if c.ViewerHistory == nil {
			c.ViewerHistory = []domain.ViewerSample{}
		}
		if c.StatusChanges == nil {
			c.StatusChanges = []domain.StatusChange{}
		}
		closeExtraOpen(c)
		out[c.ID] = c
	}
	return out
}

// closeExtraOpen keeps at most one open session by closing all but the latest
// at their own start time.
func closeExtraOpen(h *domain.StreamerHistory) {
	latest := h.OpenSession()
	for _, s := range h.Sessions {
		if s.Open() && s != latest {
			end := s.StartTime
			v := s.LastViewers
			s.EndTime = &end
			s.EndViewers = &v
			s.Duration = 0
		}
	}
}
