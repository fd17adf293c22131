package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(true, reg).(*promRecorder)

	rec.FetchResult(OutcomeOK)
	rec.FetchResult(OutcomeOK)
	rec.FetchResult(OutcomeFallback)
	rec.CacheHit()
	rec.UpstreamStatus(http.StatusTooManyRequests)
	rec.UpstreamStatus(http.StatusBadGateway)
	rec.SetLive(3)
	rec.RefreshDone(time.Second, OutcomeOK)

	if got := testutil.ToFloat64(rec.fetches.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("fetch ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.upstreamStatus.WithLabelValues("429")); got != 1 {
		t.Errorf("upstream 429 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.upstreamStatus.WithLabelValues("5xx")); got != 1 {
		t.Errorf("upstream 5xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.live); got != 3 {
		t.Errorf("live gauge = %v, want 3", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(true, reg).CacheMiss()

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "livewatch_cache_misses_total 1") {
		t.Errorf("metrics output missing cache misses:\n%s", rr.Body.String())
	}
}

func TestDisabledIsNop(t *testing.T) {
	if _, ok := New(false, prometheus.NewRegistry()).(noopRecorder); !ok {
		t.Error("New(false) should return the no-op recorder")
	}
}
