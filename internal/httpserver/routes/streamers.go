package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/handlers"
)

func init() { Register(registerStreamers) }

func registerStreamers(r chi.Router, d deps.Deps) {
	api := r.With(d.APIGuards...)
	api.Get("/api/streamers", handlers.Streamers(d))
	api.Get("/api/streamers/{id}", handlers.Streamer(d))
	api.Get("/api/facets", handlers.Facets(d))
	api.Get("/api/filters", handlers.GetFilters(d))
	api.Put("/api/filters", handlers.PutFilters(d))
	api.Post("/api/refresh", handlers.Refresh(d))
}
