package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/handlers"
)

func init() { Register(registerWatchlist) }

func registerWatchlist(r chi.Router, d deps.Deps) {
	api := r.With(d.APIGuards...)
	api.Get("/api/watchlist", handlers.Watchlist(d))
	api.Post("/api/watchlist", handlers.AddToWatchlist(d))
	api.Delete("/api/watchlist/{id}", handlers.RemoveFromWatchlist(d))
	api.Get("/api/backup", handlers.ExportBackup(d))
	api.Post("/api/backup", handlers.ImportBackup(d))
}
