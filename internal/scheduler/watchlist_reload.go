package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/watchlist"
)

// WatchlistSource produces the current watchlist.
type WatchlistSource interface {
	Load(ctx context.Context) ([]string, watchlist.Origin, error)
}

// WatchlistTarget receives reloaded watchlists.
type WatchlistTarget interface {
	ReplaceWatchlist(ctx context.Context, ids []string) (added, removed int)
}

// WatchlistReloader periodically re-reads the watchlist. When channels were
// added it pokes the refresh trigger so they show up without waiting a tick.
type WatchlistReloader struct {
	source   WatchlistSource
	target   WatchlistTarget
	logger   logger.Logger
	interval time.Duration
	refresh  chan struct{}
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewWatchlistReloader(
	source WatchlistSource,
	target WatchlistTarget,
	log logger.Logger,
	interval time.Duration,
	refresh chan struct{},
) *WatchlistReloader {
	return &WatchlistReloader{
		source:   source,
		target:   target,
		logger:   log,
		interval: interval,
		refresh:  refresh,
		stopCh:   make(chan struct{}),
	}
}

// Start loads the watchlist once, failing if no source can provide one, then
// keeps reloading in the background.
func (wr *WatchlistReloader) Start(ctx context.Context) error {
	if err := wr.Reload(ctx); err != nil {
		return fmt.Errorf("initial watchlist load failed: %w", err)
	}

	ticker := time.NewTicker(wr.interval)
	wr.wg.Add(1)
	go func() {
		defer wr.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := wr.Reload(ctx); err != nil {
					wr.logger.Error("failed to reload watchlist", logger.Error(err))
				}
			case <-wr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (wr *WatchlistReloader) Stop() {
	wr.stopOnce.Do(func() { close(wr.stopCh) })
	wr.wg.Wait()
}

func (wr *WatchlistReloader) Reload(ctx context.Context) error {
	ids, origin, err := wr.source.Load(ctx)
	if err != nil {
		return err
	}

	added, removed := wr.target.ReplaceWatchlist(ctx, ids)
	wr.logger.Info("watchlist loaded",
		logger.String("origin", string(origin)),
		logger.Int("count", len(ids)),
		logger.Int("added", added),
		logger.Int("removed", removed))

	if added > 0 && wr.refresh != nil {
		select {
		case wr.refresh <- struct{}{}:
		default:
		}
	}
	return nil
}
