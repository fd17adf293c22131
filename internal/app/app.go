package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/config"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver"
	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/scheduler"
	"github.com/MrSnakeDoc/livewatch/internal/version"
)

type App struct {
	*core
	server    *httpserver.Server
	syncer    *scheduler.StateSyncer
	reloader  *scheduler.WatchlistReloader
	refresher *scheduler.Refresher
	gc        *scheduler.GarbageCollector
}

// New loads the configuration and builds the full service.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()
	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	c, err := buildCore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	c.wireEvents()

	// Manual refresh trigger, shared by POST /api/refresh, backup imports and
	// watchlist reloads that added channels.
	refreshTrigger := make(chan struct{}, 1)

	reloader := scheduler.NewWatchlistReloader(
		c.source,
		c.session,
		loggerClient,
		cfg.WatchlistReloadInterval,
		refreshTrigger,
	)

	refresher := scheduler.NewRefresher(c.session, loggerClient, cfg.RefreshInterval, refreshTrigger)

	gc := scheduler.NewGarbageCollector(
		c.history,
		c.snapCache,
		c.store,
		loggerClient,
		cfg.GCInterval,
	)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		Session:        c.session,
		Store:          c.store,
		StoreDriver:    c.storeDriver,
		RefreshTrigger: refreshTrigger,
		MetricsHandler: c.metricsHandler(),
	}

	return &App{
		core:      c,
		server:    httpserver.New(cfg, loggerClient, d),
		syncer:    scheduler.NewStateSyncer(c.session, loggerClient),
		reloader:  reloader,
		refresher: refresher,
		gc:        gc,
	}, nil
}

func (a *App) Run() error {
	defer a.close()

	a.logger.Infof("🚀 Starting livewatch %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persisted state first so the watchlist fallback and the first refresh
	// see the last-known filters, settings and history.
	a.syncer.Sync(ctx)

	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watchlist reloader: %w", err)
	}
	a.logger.Info("watchlist reloader started",
		logger.Duration("interval", a.cfg.WatchlistReloadInterval))

	if err := a.refresher.Start(ctx); err != nil {
		a.reloader.Stop()
		return fmt.Errorf("failed to start refresher: %w", err)
	}
	a.logger.Info("refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	if err := a.gc.Start(ctx); err != nil {
		a.refresher.Stop()
		a.reloader.Stop()
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}
	stop()

	a.reloader.Stop()
	a.refresher.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	a.logger.Info("✅ livewatch stopped cleanly")
	return nil
}
