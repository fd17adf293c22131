// Package metrics exposes livewatch's Prometheus instrumentation. When metrics
// are disabled every call goes to a no-op recorder.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeFallback  = "fallback"
	OutcomeDropped   = "dropped"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

type Recorder interface {
	FetchResult(outcome string)
	CacheHit()
	CacheMiss()
	LimiterWait(wait time.Duration)
	UpstreamStatus(code int)
	Batch(size int)
	RefreshDone(elapsed time.Duration, outcome string)
	SetWatched(n int)
	SetLive(n int)
	StoreError(op string)
}

type promRecorder struct {
	fetches        *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	limiterWaits   prometheus.Histogram
	upstreamStatus *prometheus.CounterVec
	batchSize      prometheus.Histogram
	refreshes      *prometheus.HistogramVec
	watched        prometheus.Gauge
	live           prometheus.Gauge
	storeErrors    *prometheus.CounterVec
}

// New returns a Prometheus-backed recorder registered on reg, or a no-op
// recorder when disabled.
func New(enabled bool, reg prometheus.Registerer) Recorder {
	if !enabled {
		return Nop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &promRecorder{
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livewatch_fetch_total",
			Help: "Channel fetches by outcome",
		}, []string{"outcome"}),

		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "livewatch_cache_hits_total",
			Help: "Snapshot cache hits",
		}),

		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "livewatch_cache_misses_total",
			Help: "Snapshot cache misses",
		}),

		limiterWaits: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "livewatch_ratelimit_wait_seconds",
			Help:    "Time callers spent suspended by the outbound rate limiter",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5},
		}),

		upstreamStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livewatch_upstream_responses_total",
			Help: "Upstream responses by status class",
		}, []string{"status"}),

		batchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "livewatch_fetch_batch_size",
			Help:    "Number of channels fetched per batch",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),

		refreshes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "livewatch_refresh_duration_seconds",
			Help:    "Duration of refresh operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),

		watched: f.NewGauge(prometheus.GaugeOpts{
			Name: "livewatch_watched_channels",
			Help: "Channels on the watchlist",
		}),

		live: f.NewGauge(prometheus.GaugeOpts{
			Name: "livewatch_live_channels",
			Help: "Channels live at the last refresh",
		}),

		storeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livewatch_store_errors_total",
			Help: "Persistent store operations that failed and degraded to a no-op",
		}, []string{"op"}),
	}
}

func (m *promRecorder) FetchResult(outcome string) { m.fetches.WithLabelValues(outcome).Inc() }
func (m *promRecorder) CacheHit()                  { m.cacheHits.Inc() }
func (m *promRecorder) CacheMiss()                 { m.cacheMisses.Inc() }
func (m *promRecorder) LimiterWait(d time.Duration) {
	m.limiterWaits.Observe(d.Seconds())
}
func (m *promRecorder) UpstreamStatus(code int) {
	m.upstreamStatus.WithLabelValues(statusLabel(code)).Inc()
}
func (m *promRecorder) Batch(size int) { m.batchSize.Observe(float64(size)) }
func (m *promRecorder) RefreshDone(d time.Duration, outcome string) {
	m.refreshes.WithLabelValues(outcome).Observe(d.Seconds())
}
func (m *promRecorder) SetWatched(n int)     { m.watched.Set(float64(n)) }
func (m *promRecorder) SetLive(n int)        { m.live.Set(float64(n)) }
func (m *promRecorder) StoreError(op string) { m.storeErrors.WithLabelValues(op).Inc() }

// statusLabel keeps 429 distinct from other client errors.
func statusLabel(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return strconv.Itoa(code)
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type noopRecorder struct{}

// Nop returns a recorder that drops everything.
func Nop() Recorder { return noopRecorder{} }

func (noopRecorder) FetchResult(string)                 {}
func (noopRecorder) CacheHit()                          {}
func (noopRecorder) CacheMiss()                         {}
func (noopRecorder) LimiterWait(time.Duration)          {}
func (noopRecorder) UpstreamStatus(int)                 {}
func (noopRecorder) Batch(int)                          {}
func (noopRecorder) RefreshDone(time.Duration, string)  {}
func (noopRecorder) SetWatched(int)                     {}
func (noopRecorder) SetLive(int)                        {}
func (noopRecorder) StoreError(string)                  {}
