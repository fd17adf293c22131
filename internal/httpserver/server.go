package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/livewatch/internal/config"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/mw"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/routes"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	handler http.Handler
	logger  logger.Logger
}

// New builds the router, its middlewares and every registered route.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	d.APIGuards = []func(http.Handler) http.Handler{
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             cfg.APIBurst,
			RefillPerIPPerMin: cfg.APIRefillPerMin,
			MaxEntries:        10000,
			TrustProxy:        cfg.TrustProxy,
		}),
	}

	h := Router(loggerClient, d, cfg.CORSOrigins)

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{http: s, handler: h, logger: loggerClient}
}

// Router assembles the handler tree without a listener.
func Router(loggerClient logger.Logger, d deps.Deps, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(20 * time.Second)) // a refresh-on-add goes through the rate limiter
	r.Use(mw.Log(loggerClient))
	r.Use(mw.CORS(corsOrigins))

	routes.RegisterAll(r, d)
	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
