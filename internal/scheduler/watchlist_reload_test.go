package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/watchlist"
)

type fakeSource struct {
	ids []string
	err error
}

func (f *fakeSource) Load(context.Context) ([]string, watchlist.Origin, error) {
	return f.ids, watchlist.OriginRemote, f.err
}

type fakeTarget struct {
	ids []string
}

func (f *fakeTarget) ReplaceWatchlist(_ context.Context, ids []string) (int, int) {
	added := 0
	for _, id := range ids {
		found := false
		for _, old := range f.ids {
			found = found || old == id
		}
		if !found {
			added++
		}
	}
	removed := len(f.ids) + added - len(ids)
	f.ids = ids
	return added, removed
}

func TestWatchlistReloaderTriggersRefreshOnAdditions(t *testing.T) {
	src := &fakeSource{ids: []string{"alice"}}
	target := &fakeTarget{}
	trigger := make(chan struct{}, 1)
	wr := NewWatchlistReloader(src, target, logger.NewNop(), time.Hour, trigger)

	if err := wr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	select {
	case <-trigger:
	default:
		t.Error("added channel should trigger a refresh")
	}

	if err := wr.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	select {
	case <-trigger:
		t.Error("unchanged watchlist should not trigger a refresh")
	default:
	}
}

func TestWatchlistReloaderStartFailsWithoutSource(t *testing.T) {
	wr := NewWatchlistReloader(&fakeSource{err: watchlist.ErrUnavailable}, &fakeTarget{}, logger.NewNop(), time.Hour, nil)
	err := wr.Start(context.Background())
	if !errors.Is(err, watchlist.ErrUnavailable) {
		t.Errorf("Start() error = %v, want ErrUnavailable", err)
	}
	wr.Stop()
}
