package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
)

type filterResponse struct {
	Filter      domain.FilterState  `json:"filter"`
	Corrections []domain.Correction `json:"corrections"`
}

func GetFilters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, filterResponse{Filter: d.Session.Filter(), Corrections: []domain.Correction{}})
	}
}

// PutFilters saves a new filter. Invalid values are reset and reported, not
// rejected.
func PutFilters(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f domain.FilterState
		if err := decodeBody(w, r, 16<<10, &f); err != nil {
			writeError(w, http.StatusBadRequest, "invalid filter body")
			return
		}
		corrections := d.Session.SetFilter(r.Context(), f)
		if corrections == nil {
			corrections = []domain.Correction{}
		}
		writeJSON(w, http.StatusOK, filterResponse{Filter: d.Session.Filter(), Corrections: corrections})
	}
}
