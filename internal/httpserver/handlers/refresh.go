package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

type refreshResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Refresh queues a manual refresh. A refresh already queued answers 429.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.RefreshTrigger <- struct{}{}:
			d.Logger.Info("manual refresh triggered via endpoint", logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, refreshResponse{Triggered: true, Message: "refresh triggered"})
		default:
			d.Logger.Warn("refresh already queued", logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, refreshResponse{Message: "refresh already queued, please wait"})
		}
	}
}
