package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MrSnakeDoc/livewatch/internal/cache"
	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/config"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/events"
	"github.com/MrSnakeDoc/livewatch/internal/fetch"
	"github.com/MrSnakeDoc/livewatch/internal/history"
	"github.com/MrSnakeDoc/livewatch/internal/index"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
	"github.com/MrSnakeDoc/livewatch/internal/notify"
	"github.com/MrSnakeDoc/livewatch/internal/ratelimit"
	"github.com/MrSnakeDoc/livewatch/internal/redis"
	"github.com/MrSnakeDoc/livewatch/internal/session"
	"github.com/MrSnakeDoc/livewatch/internal/store"
	"github.com/MrSnakeDoc/livewatch/internal/store/local"
	redisstore "github.com/MrSnakeDoc/livewatch/internal/store/redis"
	"github.com/MrSnakeDoc/livewatch/internal/upstream"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
	"github.com/MrSnakeDoc/livewatch/internal/version"
	"github.com/MrSnakeDoc/livewatch/internal/watchlist"
)

// core is the object graph shared by the server and the offline commands.
type core struct {
	cfg    *config.Config
	logger logger.Logger
	clock  clock.Clock

	registry    *prometheus.Registry // nil when metrics are disabled
	metrics     metrics.Recorder
	storeDriver string // "redis" only when the connection succeeded
	store       *store.Store
	bus         *events.Bus
	index       *index.MemoryIndex
	snapCache   *cache.TTL[*domain.Snapshot]
	history     *history.Aggregator
	pipeline    *fetch.Pipeline
	source      *watchlist.Source
	session     *session.Session

	unsubscribe []func()
}

func buildCore(ctx context.Context, cfg *config.Config, log logger.Logger) (*core, error) {
	c := &core{cfg: cfg, logger: log, clock: clock.Real{}}

	c.metrics = metrics.Nop()
	if cfg.MetricsEnabled {
		c.registry = prometheus.NewRegistry()
		c.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		c.metrics = metrics.New(true, c.registry)
	}

	backend, err := c.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	c.store, err = store.New(backend, store.Options{
		Namespace: cfg.StoreNamespace,
		CacheTTL:  cfg.UserCacheTTL,
		Clock:     c.clock,
		Logger:    log.Named("store"),
		Metrics:   c.metrics,
	})
	if err != nil {
		utils.Close(backend)
		return nil, fmt.Errorf("init store: %w", err)
	}

	c.bus = events.NewBus(log.Named("events"))
	c.index = index.NewMemoryIndex()
	c.snapCache = cache.New[*domain.Snapshot](c.clock, cfg.SnapshotCacheTTL)
	c.history = history.New(history.Options{
		Store:     c.store,
		Clock:     c.clock,
		Logger:    log.Named("history"),
		Bus:       c.bus,
		Retention: cfg.HistoryRetention,
	})

	userAgent := cfg.UpstreamUserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	client := upstream.NewClient(upstream.Options{
		BaseURL:          cfg.UpstreamURL,
		Timeout:          cfg.UpstreamTimeout,
		UserAgent:        userAgent,
		RetryBackoff:     cfg.RetryBackoff,
		RateLimitRetries: cfg.RateLimitRetries,
		Metrics:          c.metrics,
	}, c.clock, log.Named("upstream"))

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow, c.clock,
		ratelimit.WithMaxWaits(cfg.RateLimitMaxWaits),
		ratelimit.WithWaitObserver(c.metrics.LimiterWait))

	c.pipeline = fetch.New(fetch.Options{
		Source:     client,
		Limiter:    limiter,
		Cache:      c.snapCache,
		LastSeen:   c.store,
		Clock:      c.clock,
		Logger:     log.Named("fetch"),
		Metrics:    c.metrics,
		BatchSize:  cfg.BatchSize,
		BatchDelay: cfg.BatchDelay,
		CacheTTL:   cfg.SnapshotCacheTTL,
	})

	var seed *watchlist.SeedLoader
	if cfg.SeedFile != "" {
		seed = watchlist.NewSeedLoader(cfg.SeedFile)
	}
	c.source = watchlist.NewSource(watchlist.SourceOptions{
		URL:        cfg.WatchlistURL,
		HTTPClient: &http.Client{Timeout: cfg.UpstreamTimeout},
		Store:      c.store,
		Cache:      c.store,
		Seed:       seed,
		Clock:      c.clock,
		Logger:     log.Named("watchlist"),
	})

	// A typed nil *watchlist.Proxy must not reach the session interface.
	var proxy session.Proxy
	if p := watchlist.NewProxy(watchlist.ProxyOptions{AddURL: cfg.ProxyAddURL, RemoveURL: cfg.ProxyRemoveURL}); p.Enabled() {
		proxy = p
	}

	c.session = session.New(session.Options{
		Store:          c.store,
		Fetcher:        c.pipeline,
		History:        c.history,
		Proxy:          proxy,
		Index:          c.index,
		Bus:            c.bus,
		Clock:          c.clock,
		Logger:         log.Named("session"),
		Metrics:        c.metrics,
		IndexThreshold: cfg.IndexThreshold,
	})
	return c, nil
}

// openBackend dials redis when selected and falls back to the local backend
// when it stays unreachable.
func (c *core) openBackend(ctx context.Context) (store.Backend, error) {
	c.storeDriver = "local"
	if c.cfg.StoreDriver == "redis" {
		c.logger.Infof("Connecting to Redis at %s", c.cfg.RedisAddr)
		client, err := redis.Connect(ctx, redis.Options{
			Addr:           c.cfg.RedisAddr,
			User:           c.cfg.RedisUser,
			Password:       c.cfg.RedisPassword,
			DB:             c.cfg.RedisDB,
			PoolSize:       c.cfg.RedisPoolSize,
			DialTimeout:    c.cfg.RedisDT,
			ReadTimeout:    c.cfg.RedisRT,
			WriteTimeout:   c.cfg.RedisWT,
			ConnectTimeout: c.cfg.RedisConnectTimeout,
			RetryInterval:  c.cfg.RedisRetryInterval,
			MaxWait:        c.cfg.RedisMaxWait,
			PingTimeout:    c.cfg.RedisPingTimeout,
			WarnThreshold:  c.cfg.RedisWarnThreshold,
		}, c.logger.Named("redis"))
		if err == nil {
			c.storeDriver = "redis"
			c.logger.Info("Redis initialized successfully")
			return redisstore.New(client), nil
		}
		c.logger.Error("redis unavailable, falling back to the local store", logger.Error(err))
	}

	backend, err := local.New(c.cfg.StoreFile, c.logger.Named("local"))
	if err != nil {
		return nil, fmt.Errorf("open local store %q: %w", c.cfg.StoreFile, err)
	}
	return backend, nil
}

// wireEvents connects bus topics to metrics, notifications and logs.
func (c *core) wireEvents() {
	c.unsubscribe = append(c.unsubscribe,
		c.bus.SnapshotsUpdated.Subscribe(func(e events.SnapshotsUpdated) error {
			live := 0
			for _, s := range e.Snapshots {
				if s.IsLive {
					live++
				}
			}
			c.metrics.SetLive(live)
			return nil
		}),
		c.bus.RefreshFinished.Subscribe(func(e events.RefreshFinished) error {
			if e.Outcome == metrics.OutcomeFailed {
				c.logger.Warn("refresh failed", logger.String("reason", e.Reason), logger.Error(e.Err))
			}
			return nil
		}),
		c.bus.FavoriteToggled.Subscribe(func(e events.FavoriteToggled) error {
			c.logger.Debug("favorite toggled", logger.String("channel", e.ID), logger.Bool("favorite", e.Favorite))
			return nil
		}),
		c.bus.FilterChanged.Subscribe(func(e events.FilterChanged) error {
			if len(e.Corrections) > 0 {
				c.logger.Info("filter corrected", logger.Int("corrections", len(e.Corrections)))
			}
			return nil
		}),
		notify.Subscribe(c.bus.StatusChanged, c.notifySink(), c.session.NotificationsEnabled, 10*time.Second),
	)
}

func (c *core) notifySink() notify.Sink {
	var sink notify.Sink = notify.NewLogSink(c.logger.Named("notify"))
	if c.cfg.NotifyWebhookURL != "" {
		sink = notify.NewWebhookSink(c.cfg.NotifyWebhookURL, 10*time.Second)
	}
	return notify.NewPolicySink(sink, notify.Policy{
		Cooldown:   c.cfg.NotifyCooldown,
		QuietStart: c.cfg.NotifyQuietStart,
		QuietEnd:   c.cfg.NotifyQuietEnd,
		MinViewers: c.cfg.NotifyMinViewers,
	}, c.clock, c.logger.Named("notify"))
}

func (c *core) metricsHandler() http.Handler {
	if c.registry == nil {
		return nil
	}
	return metrics.Handler(c.registry)
}

// close releases the store, and with it the redis connection when one is
// open. Call once.
func (c *core) close() {
	for _, unsub := range c.unsubscribe {
		unsub()
	}
	c.session.Cancel()
	utils.MustClose(c.store, c.storeDriver+" store", c.logger)
}
