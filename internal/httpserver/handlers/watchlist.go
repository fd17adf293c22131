package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/watchlist"
)

// SecretHeader carries the shared secret required to remove a channel.
const SecretHeader = "X-Watchlist-Secret"

type addRequest struct {
	ID string `json:"id"`
}

func Watchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.Watchlist())
	}
}

func AddToWatchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := decodeBody(w, r, 4<<10, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		res, err := d.Session.AddToWatchlist(r.Context(), req.ID)
		if err != nil {
			writeProxyError(w, d, err)
			return
		}
		status := http.StatusCreated
		if res.AlreadyExists {
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

func RemoveFromWatchlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Session.RemoveFromWatchlist(r.Context(), id, r.Header.Get(SecretHeader)); err != nil {
			writeProxyError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeProxyError(w http.ResponseWriter, d deps.Deps, err error) {
	switch {
	case errors.Is(err, watchlist.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, watchlist.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, watchlist.ErrNotWatched):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, watchlist.ErrProxyDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		d.Logger.Warn("watchlist proxy call failed", logger.Error(err))
		writeError(w, http.StatusBadGateway, "watchlist proxy failed")
	}
}
