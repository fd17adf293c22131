package history

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

// Cleanup purges closed sessions, viewer samples and status changes older
// than the retention horizon and returns how many records were dropped. Open
// sessions and the latest status change of each channel always survive, so
// change detection keeps working. Derived totals are recomputed from what is
// left.
func (a *Aggregator) Cleanup(ctx context.Context) int {
	cutoff := a.clock.Now().Add(-a.retention)

	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for _, h := range a.histories {
		removed += purge(h, cutoff)
	}
	if removed > 0 {
		a.persistLocked(ctx)
		a.logger.Info("history purged",
			logger.Int("removed", removed),
			logger.Time("cutoff", cutoff))
	}
	return removed
}

func purge(h *domain.StreamerHistory, cutoff time.Time) int {
	removed := 0

	sessions := h.Sessions[:0]
	for _, s := range h.Sessions {
		if !s.Open() && s.EndTime.Before(cutoff) {
			removed++
			continue
		}
		samples := s.ViewerSamples[:0]
		for _, v := range s.ViewerSamples {
			if v.At.Before(cutoff) {
				removed++
				continue
			}
			samples = append(samples, v)
		}
		s.ViewerSamples = samples
		sessions = append(sessions, s)
	}
	h.Sessions = sessions

	samples := h.ViewerHistory[:0]
	for _, v := range h.ViewerHistory {
		if v.At.Before(cutoff) {
			removed++
			continue
		}
		samples = append(samples, v)
	}
	h.ViewerHistory = samples

	if n := len(h.StatusChanges); n > 1 {
		last := h.StatusChanges[n-1]
		changes := h.StatusChanges[:0]
		for _, c := range h.StatusChanges[:n-1] {
			if c.At.Before(cutoff) {
				removed++
				continue
			}
			changes = append(changes, c)
		}
		h.StatusChanges = append(changes, last)
	}

	if removed > 0 {
		h.StreamCount = len(h.Sessions)
		h.TotalStreamTime = 0
		for _, s := range h.Sessions {
			if !s.Open() {
				h.TotalStreamTime += s.Duration
			}
		}
		h.AverageViewers = weightedAverage(h.Sessions)
	}
	return removed
}
