// Package scheduler runs the periodic jobs around the session: auto refresh,
// watchlist reloads, garbage collection and the startup state sync.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/session"
)

// RefreshSession is the part of the session the refresher drives.
type RefreshSession interface {
	Refresh(ctx context.Context, reason string) (session.RefreshResult, error)
	Settings() domain.Settings
}

// Refresher refreshes the session on a ticker and on manual triggers. Each
// refresh runs in its own goroutine so a trigger can supersede a slow one.
type Refresher struct {
	session       RefreshSession
	logger        logger.Logger
	interval      time.Duration
	manualTrigger chan struct{}
	stopCh        chan struct{}
	wg            sync.WaitGroup
	stopOnce      sync.Once
}

func NewRefresher(s RefreshSession, log logger.Logger, interval time.Duration, manualTrigger chan struct{}) *Refresher {
	return &Refresher{
		session:       s,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
	}
}

// Start runs the initial refresh synchronously, then schedules the rest.
func (r *Refresher) Start(ctx context.Context) error {
	r.run(ctx, session.ReasonInitial)

	current := r.currentInterval()
	ticker := time.NewTicker(current)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !r.session.Settings().AutoRefresh {
					r.logger.Debug("auto refresh disabled, skipping tick")
					continue
				}
				r.spawn(ctx, session.ReasonPeriodic)
				if next := r.currentInterval(); next != current {
					current = next
					ticker.Reset(current)
					r.logger.Info("refresh interval changed", logger.Duration("interval", current))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual refresh triggered")
				r.spawn(ctx, session.ReasonManual)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop and waits for in-flight refreshes to return.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Refresher) spawn(ctx context.Context, reason string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, reason)
	}()
}

func (r *Refresher) run(ctx context.Context, reason string) {
	_, err := r.session.Refresh(ctx, reason)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrRefreshSuperseded), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.logger.Debug("refresh cancelled", logger.String("refresh", reason), logger.String("reason", "cancelled"))
	default:
		r.logger.Error("refresh failed", logger.String("refresh", reason), logger.Error(err))
	}
}

// currentInterval prefers the user's setting over the configured default.
func (r *Refresher) currentInterval() time.Duration {
	if secs := r.session.Settings().RefreshIntervalSeconds; secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if r.interval > 0 {
		return r.interval
	}
	return time.Minute
}
