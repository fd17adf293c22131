package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Mode       string `json:"mode,omitempty"`
	Count      *int   `json:"count,omitempty"`
	LastUpdate string `json:"last_update,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports per-component health and an overall mode: "optimal",
// "degraded" (store down, state not persisted) or "critical" (nothing watched
// or no successful refresh yet).
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := d.Session.Stats()

		upstream := componentStatus{OK: stats.LastRefresh.Outcome == metrics.OutcomeOK, Count: &stats.Snapshots, LastUpdate: "never"}
		if !stats.LastRefresh.StartedAt.IsZero() {
			upstream.LastUpdate = stats.LastRefresh.StartedAt.Format(time.RFC3339)
		}

		components := map[string]componentStatus{
			"watchlist": {OK: stats.Watched > 0, Count: &stats.Watched},
			"upstream":  upstream,
			"store":     checkStore(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, infraResponse{Mode: overallMode(components), Components: components})
	}
}

func overallMode(components map[string]componentStatus) string {
	if !components["watchlist"].OK || !components["upstream"].OK {
		return "critical"
	}
	if !components["store"].OK {
		return "degraded"
	}
	return "optimal"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Store.Healthy(ctx); err != nil {
		return componentStatus{
			Mode:   d.StoreDriver,
			Impact: "state-not-persisted",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.StoreDriver}
}
