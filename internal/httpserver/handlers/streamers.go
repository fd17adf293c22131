package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/session"
)

// Streamers returns the dashboard view. Query parameters override the saved
// filter for this call only.
func Streamers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := filterFromQuery(d.Session.Filter(), r.URL.Query())
		writeJSON(w, http.StatusOK, d.Session.View(&state, d.Now()))
	}
}

func filterFromQuery(base domain.FilterState, q url.Values) domain.FilterState {
	set := func(key string, dst *string) {
		if q.Has(key) {
			*dst = q.Get(key)
		}
	}
	status, viewers, duration := string(base.Status), string(base.Viewers), string(base.Duration)
	sort, direction := string(base.Sort), string(base.Direction)

	set("status", &status)
	set("viewers", &viewers)
	set("duration", &duration)
	set("sort", &sort)
	set("direction", &direction)
	set("category", &base.Category)
	set("search", &base.Search)
	set("language", &base.Language)

	base.Status = domain.StatusFilter(status)
	base.Viewers = domain.ViewerBucket(viewers)
	base.Duration = domain.DurationBucket(duration)
	base.Sort = domain.SortKey(sort)
	base.Direction = domain.Direction(direction)
	return base
}

func Streamer(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		snap, ok := d.Session.Snapshot(id)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown streamer")
			return
		}
		writeJSON(w, http.StatusOK, session.Entry{Snapshot: snap, Favorite: d.Session.IsFavorite(id)})
	}
}

func Facets(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Session.Facets())
	}
}
