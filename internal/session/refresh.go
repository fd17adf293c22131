package session

import (
	"context"
	"errors"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/events"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
)

// ErrRefreshSuperseded is the cancellation cause of a refresh that was
// replaced by a newer one.
var ErrRefreshSuperseded = errors.New("session: refresh superseded")

// Refresh reasons.
const (
	ReasonInitial  = "initial"
	ReasonManual   = "manual"
	ReasonPeriodic = "periodic"
	ReasonReload   = "watchlist_reload"
	ReasonImport   = "import"
)

// RefreshResult describes one finished refresh.
type RefreshResult struct {
	Reason    string                `json:"reason"`
	Outcome   string                `json:"outcome"`
	Requested int                   `json:"requested"`
	Count     int                   `json:"count"`
	Live      int                   `json:"live"`
	StartedAt time.Time             `json:"started_at"`
	Elapsed   time.Duration         `json:"elapsed"`
	Changes   []domain.StatusChange `json:"changes,omitempty"`
}

// Refresh fetches every watched channel and replaces the snapshot set. At most
// one refresh is active: starting one cancels the previous with
// ErrRefreshSuperseded. A cancelled refresh writes nothing and returns the
// cancellation cause.
func (s *Session) Refresh(ctx context.Context, reason string) (RefreshResult, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	s.refreshMu.Lock()
	if s.cancel != nil {
		s.cancel(ErrRefreshSuperseded)
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.refreshMu.Unlock()

	defer s.release(seq, cancel)

	start := s.now()
	ids := s.Watchlist()
	res := RefreshResult{Reason: reason, Requested: len(ids), StartedAt: start}

	var snaps []*domain.Snapshot
	if len(ids) > 0 {
		var err error
		snaps, err = s.fetcher.FetchMany(ctx, ids)
		if err != nil {
			return s.cancelled(ctx, res, err)
		}
	}

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if !s.current(seq) || ctx.Err() != nil {
		return s.cancelled(ctx, res, ctx.Err())
	}

	now := s.now()
	s.index.Replace(snaps, ids, now)
	for _, snap := range snaps {
		if change := s.history.Record(ctx, snap); change != nil {
			res.Changes = append(res.Changes, *change)
		}
		if snap.IsLive {
			res.Live++
		}
	}

	res.Count = len(snaps)
	res.Outcome = metrics.OutcomeOK
	res.Elapsed = now.Sub(start)
	s.finish(res, nil)

	s.bus.SnapshotsUpdated.Publish(events.SnapshotsUpdated{Snapshots: snaps, Reason: reason, At: now})
	s.logger.Info("refresh finished",
		logger.String("reason", reason),
		logger.Int("requested", res.Requested),
		logger.Int("fetched", res.Count),
		logger.Int("live", res.Live),
		logger.Int("changes", len(res.Changes)),
		logger.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// Cancel aborts the active refresh, if any.
func (s *Session) Cancel() {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if s.cancel != nil {
		s.cancel(context.Canceled)
	}
}

func (s *Session) current(seq uint64) bool {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.seq == seq
}

func (s *Session) release(seq uint64, cancel context.CancelCauseFunc) {
	s.refreshMu.Lock()
	if s.seq == seq {
		s.cancel = nil
	}
	s.refreshMu.Unlock()
	cancel(nil)
}

func (s *Session) cancelled(ctx context.Context, res RefreshResult, err error) (RefreshResult, error) {
	if cause := context.Cause(ctx); cause != nil {
		err = cause
	}
	if err == nil {
		err = context.Canceled
	}
	res.Outcome = metrics.OutcomeCancelled
	res.Elapsed = s.now().Sub(res.StartedAt)
	s.finish(res, err)

	s.logger.Debug("refresh stopped",
		logger.String("refresh", res.Reason),
		logger.String("reason", "cancelled"),
		logger.Error(err),
	)
	return res, err
}

func (s *Session) finish(res RefreshResult, err error) {
	if res.Outcome == metrics.OutcomeOK {
		s.mu.Lock()
		s.last = res
		s.mu.Unlock()
	}
	s.metrics.RefreshDone(res.Elapsed, res.Outcome)
	s.bus.RefreshFinished.Publish(events.RefreshFinished{
		Reason:  res.Reason,
		Outcome: res.Outcome,
		Count:   res.Count,
		Elapsed: res.Elapsed,
		Err:     err,
	})
}
