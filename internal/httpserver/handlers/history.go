package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
)

func History(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := d.Session.History(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "no history for streamer")
			return
		}
		writeJSON(w, http.StatusOK, h)
	}
}

// Analytics derives stats over ?days=N (1..30, default from settings).
func Analytics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 0
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 30 {
				writeError(w, http.StatusBadRequest, "days must be between 1 and 30")
				return
			}
			days = n
		}
		a, ok := d.Session.Analyze(chi.URLParam(r, "id"), days)
		if !ok {
			writeError(w, http.StatusNotFound, "no history for streamer")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
