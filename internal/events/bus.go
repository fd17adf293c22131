package events

import (
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

// SnapshotsUpdated is published after a refresh replaced the snapshot set.
type SnapshotsUpdated struct {
	Snapshots []*domain.Snapshot
	Reason    string
	At        time.Time
}

type FavoriteToggled struct {
	ID       string
	Favorite bool
}

type FilterChanged struct {
	State       domain.FilterState
	Corrections []domain.Correction
}

// RefreshFinished reports the terminal state of one refresh operation.
// Outcome is one of the metrics outcome labels.
type RefreshFinished struct {
	Reason  string
	Outcome string
	Count   int
	Elapsed time.Duration
	Err     error
}

// Bus groups the topics livewatch publishes on.
type Bus struct {
	SnapshotsUpdated *Topic[SnapshotsUpdated]
	StatusChanged    *Topic[domain.StatusChange]
	FavoriteToggled  *Topic[FavoriteToggled]
	FilterChanged    *Topic[FilterChanged]
	RefreshFinished  *Topic[RefreshFinished]
}

func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNop()
	}
	return &Bus{
		SnapshotsUpdated: NewTopic[SnapshotsUpdated]("snapshots_updated", log),
		StatusChanged:    NewTopic[domain.StatusChange]("status_changed", log),
		FavoriteToggled:  NewTopic[FavoriteToggled]("favorite_toggled", log),
		FilterChanged:    NewTopic[FilterChanged]("filter_changed", log),
		RefreshFinished:  NewTopic[RefreshFinished]("refresh_finished", log),
	}
}
