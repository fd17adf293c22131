package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

// HistoryPurger drops history older than the retention horizon.
type HistoryPurger interface {
	Cleanup(ctx context.Context) int
}

// CacheSweeper evicts expired in-memory cache entries.
type CacheSweeper interface {
	Sweep() int
}

// StoreCacheCleaner evicts expired entries of the persisted cache.
type StoreCacheCleaner interface {
	ClearCache(ctx context.Context) int
}

// GCReport counts what one collection removed.
type GCReport struct {
	Histories      int
	SnapshotCache  int
	PersistedCache int
}

func (r GCReport) Total() int { return r.Histories + r.SnapshotCache + r.PersistedCache }

// GarbageCollector purges old history and sweeps both cache tiers.
type GarbageCollector struct {
	history  HistoryPurger
	cache    CacheSweeper
	store    StoreCacheCleaner
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewGarbageCollector builds a collector. Any of history, cache and store may
// be nil.
func NewGarbageCollector(
	history HistoryPurger,
	cache CacheSweeper,
	store StoreCacheCleaner,
	log logger.Logger,
	interval time.Duration,
) *GarbageCollector {
	return &GarbageCollector{
		history:  history,
		cache:    cache,
		store:    store,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.Collect(ctx)

	ticker := time.NewTicker(gc.interval)
	gc.wg.Add(1)
	go func() {
		defer gc.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect(ctx)
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
	gc.wg.Wait()
}

// Collect runs one pass and reports what it removed.
func (gc *GarbageCollector) Collect(ctx context.Context) GCReport {
	var r GCReport
	if gc.history != nil {
		r.Histories = gc.history.Cleanup(ctx)
	}
	if gc.cache != nil {
		r.SnapshotCache = gc.cache.Sweep()
	}
	if gc.store != nil {
		r.PersistedCache = gc.store.ClearCache(ctx)
	}

	if r.Total() > 0 {
		gc.logger.Info("garbage collection completed",
			logger.Int("history_items", r.Histories),
			logger.Int("snapshot_cache", r.SnapshotCache),
			logger.Int("persisted_cache", r.PersistedCache))
	} else {
		gc.logger.Debug("no items to garbage collect")
	}
	return r
}
