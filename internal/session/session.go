// Package session owns the dashboard state: watchlist, favorites, filter,
// settings and the latest snapshots. Every other component reads that state
// through a Session instead of keeping its own copy.
package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/events"
	"github.com/MrSnakeDoc/livewatch/internal/history"
	"github.com/MrSnakeDoc/livewatch/internal/index"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
	"github.com/MrSnakeDoc/livewatch/internal/store"
	"github.com/MrSnakeDoc/livewatch/internal/watchlist"
)

// DefaultIndexThreshold is the collection size from which View queries go
// through the secondary index.
const DefaultIndexThreshold = 50

// Fetcher retrieves snapshots. fetch.Pipeline is the production implementation.
type Fetcher interface {
	FetchOne(ctx context.Context, id string) (*domain.Snapshot, error)
	FetchMany(ctx context.Context, ids []string) ([]*domain.Snapshot, error)
}

// Proxy confirms watchlist mutations against the canonical document.
type Proxy interface {
	Add(ctx context.Context, id string) (watchlist.AddResult, error)
	Remove(ctx context.Context, id, secret string) error
}

type Options struct {
	Store          *store.Store
	Fetcher        Fetcher
	History        *history.Aggregator
	Proxy          Proxy
	Index          *index.MemoryIndex
	Bus            *events.Bus
	Clock          clock.Clock
	Logger         logger.Logger
	Metrics        metrics.Recorder
	IndexThreshold int
}

type Session struct {
	store   *store.Store
	fetcher Fetcher
	history *history.Aggregator
	proxy   Proxy
	index   *index.MemoryIndex
	bus     *events.Bus
	clock   clock.Clock
	logger  logger.Logger
	metrics metrics.Recorder

	indexThreshold int

	mu        sync.RWMutex
	watchlist *domain.Watchlist
	favorites map[string]bool
	filter    domain.FilterState
	settings  domain.Settings
	last      RefreshResult

	// refreshMu guards the active refresh; applyMu serializes writes of
	// refresh results so an older refresh never lands after a newer one.
	refreshMu sync.Mutex
	cancel    context.CancelCauseFunc
	seq       uint64
	applyMu   sync.Mutex
}

func New(opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Index == nil {
		opts.Index = index.NewMemoryIndex()
	}
	if opts.Bus == nil {
		opts.Bus = events.NewBus(opts.Logger)
	}
	if opts.History == nil {
		opts.History = history.New(history.Options{Store: opts.Store, Clock: opts.Clock, Logger: opts.Logger, Bus: opts.Bus})
	}
	if opts.IndexThreshold <= 0 {
		opts.IndexThreshold = DefaultIndexThreshold
	}
	return &Session{
		store:          opts.Store,
		fetcher:        opts.Fetcher,
		history:        opts.History,
		proxy:          opts.Proxy,
		index:          opts.Index,
		bus:            opts.Bus,
		clock:          opts.Clock,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		indexThreshold: opts.IndexThreshold,
		watchlist:      domain.NewWatchlist(nil),
		favorites:      map[string]bool{},
		filter:         domain.DefaultFilterState(),
		settings:       domain.DefaultSettings(),
	}
}

// RestoreReport summarizes what Restore loaded from the store.
type RestoreReport struct {
	Watchlist   int                 `json:"watchlist"`
	Favorites   int                 `json:"favorites"`
	Histories   int                 `json:"histories"`
	Corrections []domain.Correction `json:"corrections,omitempty"`
}

// Restore loads persisted filters, settings, watchlist, favorites and history.
// Missing values keep their defaults.
func (s *Session) Restore(ctx context.Context) RestoreReport {
	var report RestoreReport

	filter := domain.DefaultFilterState()
	if stored, ok := s.store.Filters(ctx); ok {
		filter = stored
		report.Corrections = filter.Validate()
	}
	settings := s.store.Settings(ctx)
	ids, _ := s.store.Watchlist(ctx)
	favs := s.store.Favorites(ctx)

	s.mu.Lock()
	s.filter = filter
	s.settings = settings
	s.watchlist = domain.NewWatchlist(ids)
	s.favorites = make(map[string]bool, len(favs))
	for _, id := range favs {
		s.favorites[id] = true
	}
	report.Watchlist = s.watchlist.Len()
	report.Favorites = len(s.favorites)
	s.mu.Unlock()

	report.Histories = s.history.Load(ctx)
	s.metrics.SetWatched(report.Watchlist)

	s.logger.Info("session restored",
		logger.Int("watchlist", report.Watchlist),
		logger.Int("favorites", report.Favorites),
		logger.Int("histories", report.Histories),
		logger.Int("corrections", len(report.Corrections)),
	)
	return report
}

// Snapshot returns the latest snapshot of id.
func (s *Session) Snapshot(id string) (*domain.Snapshot, bool) {
	return s.index.Get(domain.NormalizeID(id))
}

func (s *Session) Filter() domain.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetFilter validates and persists f, returning the corrections applied.
func (s *Session) SetFilter(ctx context.Context, f domain.FilterState) []domain.Correction {
	corrections := f.Validate()

	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()

	s.store.SaveFilters(ctx, f)
	s.bus.FilterChanged.Publish(events.FilterChanged{State: f, Corrections: corrections})
	return corrections
}

func (s *Session) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SaveSettings normalizes and persists settings, returning the stored value.
func (s *Session) SaveSettings(ctx context.Context, settings domain.Settings) domain.Settings {
	settings.Normalize()

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.store.SaveSettings(ctx, settings)
	return settings
}

// NotificationsEnabled reports the user's notification toggle.
func (s *Session) NotificationsEnabled() bool {
	return s.Settings().Notifications
}

// ToggleFavorite flips id's favorite membership and returns the new state.
func (s *Session) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	id = domain.NormalizeID(id)
	if id == "" {
		return false, watchlist.ErrInvalidID
	}

	s.mu.Lock()
	now := !s.favorites[id]
	if now {
		s.favorites[id] = true
	} else {
		delete(s.favorites, id)
	}
	s.mu.Unlock()

	if now {
		s.store.AddFavorite(ctx, id)
	} else {
		s.store.RemoveFavorite(ctx, id)
	}
	s.bus.FavoriteToggled.Publish(events.FavoriteToggled{ID: id, Favorite: now})
	return now, nil
}

func (s *Session) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites[domain.NormalizeID(id)]
}

// Favorites lists favorites in sorted order. Ids no longer watched are kept.
func (s *Session) Favorites() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.favorites))
	for id := range s.favorites {
		out = append(out, id)
	}
	s.mu.RUnlock()

	slices.Sort(out)
	return out
}

func (s *Session) Watchlist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watchlist.IDs()
}

// AddToWatchlist asks the proxy to add id and, once confirmed, tracks it
// locally and fetches its first snapshot.
func (s *Session) AddToWatchlist(ctx context.Context, id string) (watchlist.AddResult, error) {
	if s.proxy == nil {
		return watchlist.AddResult{}, watchlist.ErrProxyDisabled
	}
	res, err := s.proxy.Add(ctx, id)
	if err != nil {
		return res, err
	}

	s.mu.Lock()
	s.watchlist.Add(res.ID)
	ids := s.watchlist.IDs()
	s.mu.Unlock()

	s.store.SaveWatchlist(ctx, ids)
	s.metrics.SetWatched(len(ids))

	if s.fetcher != nil {
		snap, err := s.fetcher.FetchOne(ctx, res.ID)
		if err == nil && snap != nil {
			s.index.Put(snap)
		}
	}
	return res, nil
}

// RemoveFromWatchlist asks the proxy to remove id and drops it locally only
// after the proxy confirmed. History is kept until purged.
func (s *Session) RemoveFromWatchlist(ctx context.Context, id, secret string) error {
	if s.proxy == nil {
		return watchlist.ErrProxyDisabled
	}
	id = domain.NormalizeID(id)
	if err := s.proxy.Remove(ctx, id, secret); err != nil {
		return err
	}

	s.mu.Lock()
	s.watchlist.Remove(id)
	ids := s.watchlist.IDs()
	s.mu.Unlock()

	s.index.Delete(id)
	s.store.SaveWatchlist(ctx, ids)
	s.metrics.SetWatched(len(ids))
	return nil
}

// ReplaceWatchlist installs ids as the local watchlist and drops snapshots of
// channels no longer watched. It returns how many ids were added and removed.
func (s *Session) ReplaceWatchlist(ctx context.Context, ids []string) (added, removed int) {
	next := domain.NewWatchlist(ids)

	s.mu.Lock()
	prev := s.watchlist
	s.watchlist = next
	s.mu.Unlock()

	for _, id := range next.IDs() {
		if !prev.Contains(id) {
			added++
		}
	}
	for _, id := range prev.IDs() {
		if !next.Contains(id) {
			removed++
		}
	}

	s.index.Retain(next.IDs())
	s.store.SaveWatchlist(ctx, next.IDs())
	s.metrics.SetWatched(next.Len())
	return added, removed
}

// History returns the recorded history of id.
func (s *Session) History(id string) (*domain.StreamerHistory, bool) {
	return s.history.Get(domain.NormalizeID(id))
}

// Analyze derives analytics for id. days <= 0 uses the settings window.
func (s *Session) Analyze(id string, days int) (domain.Analytics, bool) {
	if days <= 0 {
		days = s.Settings().HistoryWindowDays
	}
	return s.history.Analyze(domain.NormalizeID(id), days)
}

// LastRefresh reports the most recent finished refresh.
func (s *Session) LastRefresh() RefreshResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Session) now() time.Time { return s.clock.Now() }
