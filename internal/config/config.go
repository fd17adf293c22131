package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Upstream
	UpstreamURL       string
	UpstreamTimeout   time.Duration
	UpstreamUserAgent string // empty => "livewatch/<version>"
	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitMaxWaits int
	RetryBackoff      time.Duration
	RateLimitRetries  int
	BatchSize         int
	BatchDelay        time.Duration
	SnapshotCacheTTL  time.Duration
	UserCacheTTL      time.Duration

	// Refresh + watchlist
	RefreshInterval         time.Duration
	WatchlistURL            string // remote watchlist JSON
	WatchlistReloadInterval time.Duration
	SeedFile                string // optional YAML seed, used when nothing else answers
	ProxyAddURL             string // empty => mutations disabled
	ProxyRemoveURL          string
	HistoryRetention        time.Duration
	GCInterval              time.Duration
	IndexThreshold          int

	// Store
	StoreDriver    string // "local" | "redis"
	StoreFile      string // local backend snapshot file, empty = memory only
	StoreNamespace string

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	MetricsEnabled bool

	// Notifications
	NotifyWebhookURL string // empty => log sink
	NotifyCooldown   time.Duration
	NotifyQuietStart int // hour 0-23, -1 disables quiet hours
	NotifyQuietEnd   int
	NotifyMinViewers int

	AllowedHosts    []string // optional, restrict /api to specific Host headers
	AllowedCIDRS    []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy      bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins     []string // optional, browser origins allowed to call /api
	APIBurst        int
	APIRefillPerMin int
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LIVEWATCH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("LIVEWATCH_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LIVEWATCH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LIVEWATCH_PRETTY_LOG", true),

		// Upstream
		UpstreamURL:       getenv("LIVEWATCH_UPSTREAM_URL", "https://kick.com/api/v2"),
		UpstreamTimeout:   mustDuration("LIVEWATCH_UPSTREAM_TIMEOUT", 15*time.Second),
		UpstreamUserAgent: getenv("LIVEWATCH_UPSTREAM_USER_AGENT", ""),
		RateLimitMax:      getenvInt("LIVEWATCH_RATE_LIMIT_MAX", 10),
		RateLimitWindow:   mustDuration("LIVEWATCH_RATE_LIMIT_WINDOW", time.Second),
		RateLimitMaxWaits: getenvInt("LIVEWATCH_RATE_LIMIT_MAX_WAITS", 100),
		RetryBackoff:      mustDuration("LIVEWATCH_RETRY_BACKOFF", 2*time.Second),
		RateLimitRetries:  getenvInt("LIVEWATCH_RATE_LIMIT_RETRIES", 1),
		BatchSize:         getenvInt("LIVEWATCH_BATCH_SIZE", 5),
		BatchDelay:        mustDuration("LIVEWATCH_BATCH_DELAY", 200*time.Millisecond),
		SnapshotCacheTTL:  mustDuration("LIVEWATCH_SNAPSHOT_CACHE_TTL", 60*time.Second),
		UserCacheTTL:      mustDuration("LIVEWATCH_USER_CACHE_TTL", time.Hour),

		// Refresh + watchlist
		RefreshInterval:         mustDuration("LIVEWATCH_REFRESH_INTERVAL", 60*time.Second),
		WatchlistURL:            requireEnv("LIVEWATCH_WATCHLIST_URL"),
		WatchlistReloadInterval: mustDuration("LIVEWATCH_WATCHLIST_RELOAD_INTERVAL", 10*time.Minute),
		SeedFile:                getenv("LIVEWATCH_SEED_FILE", ""),
		ProxyAddURL:             getenv("LIVEWATCH_PROXY_ADD_URL", ""),
		ProxyRemoveURL:          getenv("LIVEWATCH_PROXY_REMOVE_URL", ""),
		HistoryRetention:        mustDuration("LIVEWATCH_HISTORY_RETENTION", 30*24*time.Hour),
		GCInterval:              mustDuration("LIVEWATCH_GC_INTERVAL", time.Hour),
		IndexThreshold:          getenvInt("LIVEWATCH_INDEX_THRESHOLD", 50),

		// Store
		StoreDriver:    strings.ToLower(getenv("LIVEWATCH_STORE_DRIVER", "local")),
		StoreFile:      os.Getenv("LIVEWATCH_STORE_FILE"),
		StoreNamespace: getenv("LIVEWATCH_STORE_NAMESPACE", "livewatch:"),

		// Redis settings
		RedisAddr:             getenv("LIVEWATCH_REDIS_ADDR", "localhost:6379"),
		RedisUser:             getenv("LIVEWATCH_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("LIVEWATCH_REDIS_PASSWORD_REQUIRED", false),
		RedisPassword:         getenv("LIVEWATCH_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("LIVEWATCH_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		MetricsEnabled: mustBool("LIVEWATCH_METRICS_ENABLED", true),

		// Notifications
		NotifyWebhookURL: getenv("LIVEWATCH_NOTIFY_WEBHOOK_URL", ""),
		NotifyCooldown:   mustDuration("LIVEWATCH_NOTIFY_COOLDOWN", 10*time.Minute),
		NotifyQuietStart: getenvInt("LIVEWATCH_NOTIFY_QUIET_START", -1),
		NotifyQuietEnd:   getenvInt("LIVEWATCH_NOTIFY_QUIET_END", -1),
		NotifyMinViewers: getenvInt("LIVEWATCH_NOTIFY_MIN_VIEWERS", 0),

		// Access restrictions
		AllowedHosts:    splitAndTrim(getenv("LIVEWATCH_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("LIVEWATCH_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("LIVEWATCH_TRUST_PROXY", true),
		CORSOrigins:     splitAndTrim(getenv("LIVEWATCH_CORS_ORIGINS", "")),
		APIBurst:        getenvInt("LIVEWATCH_API_BURST", 30),
		APIRefillPerMin: getenvInt("LIVEWATCH_API_REFILL_PER_MIN", 120),
	}
	if _, set := os.LookupEnv("LIVEWATCH_STORE_FILE"); !set {
		cfg.StoreFile = "livewatch.state"
	}

	if cfg.StoreDriver != "local" && cfg.StoreDriver != "redis" {
		panic(fmt.Sprintf("❌ FATAL: LIVEWATCH_STORE_DRIVER must be \"local\" or \"redis\", got %q", cfg.StoreDriver))
	}

	// Validate Redis password configuration
	if cfg.StoreDriver == "redis" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: LIVEWATCH_REDIS_PASSWORD is required when LIVEWATCH_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
