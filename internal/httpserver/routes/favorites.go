package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/handlers"
)

func init() { Register(registerFavorites) }

func registerFavorites(r chi.Router, d deps.Deps) {
	api := r.With(d.APIGuards...)
	api.Get("/api/favorites", handlers.Favorites(d))
	api.Post("/api/favorites/{id}/toggle", handlers.ToggleFavorite(d))
	api.Get("/api/history/{id}", handlers.History(d))
	api.Get("/api/history/{id}/analytics", handlers.Analytics(d))
}
