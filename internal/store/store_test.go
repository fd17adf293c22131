package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/store"
	"github.com/MrSnakeDoc/livewatch/internal/store/local"
)

var start = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func newStore(t *testing.T, clk clock.Clock) *store.Store {
	t.Helper()
	b, err := local.New("", logger.NewNop())
	if err != nil {
		t.Fatalf("local.New() error = %v", err)
	}
	s, err := store.New(b, store.Options{Namespace: "test:", Clock: clk})
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, clock.NewFake(start))

	var got map[string]int
	if s.Get(ctx, "k", &got) {
		t.Fatal("Get() on missing key should report false")
	}
	if !s.Set(ctx, "k", map[string]int{"a": 1}) {
		t.Fatal("Set() = false")
	}
	if !s.Get(ctx, "k", &got) || got["a"] != 1 {
		t.Errorf("Get() = %v", got)
	}
	s.Remove(ctx, "k")
	if s.Get(ctx, "k", &got) {
		t.Error("Get() after Remove should report false")
	}
}

func TestToggleFavoriteIsIdempotentPair(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, clock.NewFake(start))

	if s.IsFavorite(ctx, "alice") {
		t.Fatal("alice should not start as favorite")
	}
	if !s.ToggleFavorite(ctx, " Alice ") {
		t.Error("first toggle should add")
	}
	if !s.IsFavorite(ctx, "alice") {
		t.Error("alice should be favorite after first toggle")
	}
	if s.ToggleFavorite(ctx, "ALICE") {
		t.Error("second toggle should remove")
	}
	if s.IsFavorite(ctx, "alice") {
		t.Error("membership should be back to the original state")
	}
}

func TestReplaceFavorites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, clock.NewFake(start))

	s.AddFavorite(ctx, "zed")
	s.ReplaceFavorites(ctx, []string{"Bob", "alice", " "})
	if diff := cmp.Diff([]string{"alice", "bob"}, s.Favorites(ctx)); diff != "" {
		t.Errorf("Favorites() mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheHelpers(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(start)
	s := newStore(t, clk)

	s.SetCache(ctx, "short", "v1", 100*time.Millisecond)
	s.SetCache(ctx, "long", "v2", 0)

	var v string
	if !s.GetCache(ctx, "short", &v) || v != "v1" {
		t.Fatalf("GetCache(short) = %q", v)
	}

	clk.Advance(150 * time.Millisecond)
	if s.GetCache(ctx, "short", &v) {
		t.Error("short entry should have expired")
	}
	if !s.GetCache(ctx, "long", &v) || v != "v2" {
		t.Errorf("GetCache(long) = %q, want v2", v)
	}
}

func TestClearCacheSweepsExpiredOnly(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(start)
	s := newStore(t, clk)

	s.SetCache(ctx, "a", 1, time.Second)
	s.SetCache(ctx, "b", 2, time.Second)
	s.SetCache(ctx, "c", 3, time.Hour)
	s.Set(ctx, "settings", domain.DefaultSettings())

	clk.Advance(2 * time.Second)
	if got := s.ClearCache(ctx); got != 2 {
		t.Errorf("ClearCache() = %d, want 2", got)
	}
	var n int
	if !s.GetCache(ctx, "c", &n) || n != 3 {
		t.Error("live entry should survive the sweep")
	}
	if got := s.Settings(ctx); got != domain.DefaultSettings() {
		t.Errorf("non-cache keys must be untouched, Settings() = %+v", got)
	}
}

func TestTypedHelpers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, clock.NewFake(start))

	if got := s.Settings(ctx); got != domain.DefaultSettings() {
		t.Errorf("Settings() default = %+v", got)
	}
	if _, ok := s.Filters(ctx); ok {
		t.Error("Filters() should report missing")
	}
	f := domain.FilterState{Status: domain.StatusLive, Sort: domain.SortViewers, Direction: domain.Descending}
	s.SaveFilters(ctx, f)
	if got, ok := s.Filters(ctx); !ok || got != f {
		t.Errorf("Filters() = %+v, %v", got, ok)
	}

	s.SaveWatchlist(ctx, []string{"alice", "bob"})
	if got, ok := s.Watchlist(ctx); !ok || len(got) != 2 {
		t.Errorf("Watchlist() = %v, %v", got, ok)
	}

	s.SetLastSeen(ctx, "Alice", start)
	if got, ok := s.LastSeen(ctx, "alice"); !ok || !got.Equal(start) {
		t.Errorf("LastSeen() = %v, %v", got, ok)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, clock.NewFake(start))

	h := domain.NewStreamerHistory("alice")
	h.StreamCount = 2
	h.PeakViewers = 300
	h.Sessions = append(h.Sessions, &domain.Session{ID: "s1", StartTime: start, PeakViewers: 300})

	if !s.SaveHistory(ctx, map[string]*domain.StreamerHistory{"alice": h}) {
		t.Fatal("SaveHistory() = false")
	}
	got, ok := s.History(ctx)
	if !ok {
		t.Fatal("History() missing")
	}
	if diff := cmp.Diff(h, got["alice"]); diff != "" {
		t.Errorf("History() mismatch (-want +got):\n%s", diff)
	}
}

type brokenBackend struct{ store.Backend }

var errDown = errors.New("backend down")

func (brokenBackend) Get(context.Context, string) ([]byte, error)         { return nil, errDown }
func (brokenBackend) Set(context.Context, string, []byte) error           { return errDown }
func (brokenBackend) SetContains(context.Context, string, string) (bool, error) {
	return false, errDown
}
func (brokenBackend) SetAdd(context.Context, string, ...string) error { return errDown }
func (brokenBackend) Close() error                                    { return nil }

func TestFailingBackendDegrades(t *testing.T) {
	ctx := context.Background()
	s, err := store.New(brokenBackend{}, store.Options{Logger: logger.NewNop()})
	if err != nil {
		t.Fatal(err)
	}

	if s.Set(ctx, "k", 1) {
		t.Error("Set() should report false on backend failure")
	}
	if got := s.Settings(ctx); got != domain.DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults", got)
	}
	if s.ToggleFavorite(ctx, "alice") {
		t.Error("ToggleFavorite() should keep previous membership on failure")
	}
}
