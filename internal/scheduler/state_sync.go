package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/session"
)

// Restorer loads persisted state into the session.
type Restorer interface {
	Restore(ctx context.Context) session.RestoreReport
}

// StateSyncer restores persisted state before the first refresh.
type StateSyncer struct {
	session Restorer
	logger  logger.Logger
}

func NewStateSyncer(s Restorer, log logger.Logger) *StateSyncer {
	return &StateSyncer{session: s, logger: log}
}

func (ss *StateSyncer) Sync(ctx context.Context) session.RestoreReport {
	ss.logger.Info("restoring persisted state")
	report := ss.session.Restore(ctx)
	for _, c := range report.Corrections {
		ss.logger.Warn("persisted filter corrected", logger.String("correction", c.String()))
	}
	return report
}
