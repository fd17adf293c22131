package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

func TestRateLimitPerIP(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60, Clock: clk})(ok)

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/streamers", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := call("10.0.0.1:1234"); rec.Code != http.StatusNoContent {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
	}
	rec := call("10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "1" {
		t.Errorf("third call = %d, Retry-After %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	if rec := call("10.0.0.2:1234"); rec.Code != http.StatusNoContent {
		t.Errorf("other IP status = %d", rec.Code)
	}

	clk.Advance(time.Second)
	if rec := call("10.0.0.1:1234"); rec.Code != http.StatusNoContent {
		t.Errorf("after refill status = %d", rec.Code)
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"live.example.com", "*.internal.lan"}, logger.NewNop())(ok)
	cases := []struct {
		host string
		want int
	}{
		{"live.example.com", http.StatusNoContent},
		{"live.example.com:8080", http.StatusNoContent},
		{"dash.internal.lan", http.StatusNoContent},
		{"internal.lan", http.StatusForbidden},
		{"evil.com", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = tc.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("host %q status = %d, want %d", tc.host, rec.Code, tc.want)
		}
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"192.168.1.0/24", "10.0.0.7"}, true, logger.NewNop())(ok)
	cases := []struct {
		remote, xff string
		want        int
	}{
		{"192.168.1.20:5555", "", http.StatusNoContent},
		{"10.0.0.7:5555", "", http.StatusNoContent},
		{"127.0.0.1:5555", "192.168.1.9", http.StatusNoContent},
		{"127.0.0.1:5555", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.xff != "" {
			req.Header.Set("X-Forwarded-For", tc.xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s/%s status = %d, want %d", tc.remote, tc.xff, rec.Code, tc.want)
		}
	}
}

func TestCORSPassthroughWithoutOrigins(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	CORS(nil)(ok).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("no CORS header expected without configured origins")
	}

	rec = httptest.NewRecorder()
	CORS([]string{"https://dash.example.com"})(ok).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
