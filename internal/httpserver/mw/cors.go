package mw

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets the listed origins call the API from a browser. With no origins it
// is a passthrough.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Watchlist-Secret"},
		MaxAge:         600,
	})
	return c.Handler
}
