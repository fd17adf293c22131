package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/MrSnakeDoc/livewatch/internal/cache"
	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingPurger struct{ n int }

func (p *countingPurger) Cleanup(context.Context) int { return p.n }

type countingCleaner struct{ n int }

func (c *countingCleaner) ClearCache(context.Context) int { return c.n }

func TestGarbageCollector_Collect(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	snapshots := cache.New[*domain.Snapshot](clk, time.Minute)
	snapshots.Put("alice", &domain.Snapshot{ID: "alice"}, time.Minute)
	snapshots.Put("bob", &domain.Snapshot{ID: "bob"}, time.Hour)
	clk.Advance(2 * time.Minute)

	gc := NewGarbageCollector(&countingPurger{n: 3}, snapshots, &countingCleaner{n: 2}, logger.NewNop(), time.Hour)
	got := gc.Collect(context.Background())

	want := GCReport{Histories: 3, SnapshotCache: 1, PersistedCache: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
	}
	if got.Total() != 6 {
		t.Errorf("Total() = %d, want 6", got.Total())
	}
	if snapshots.Len() != 1 {
		t.Errorf("snapshot cache Len() = %d, want 1", snapshots.Len())
	}
}

func TestGarbageCollector_NilParts(t *testing.T) {
	gc := NewGarbageCollector(nil, nil, nil, logger.NewNop(), time.Hour)
	if got := gc.Collect(context.Background()); got.Total() != 0 {
		t.Errorf("Collect() = %+v, want empty", got)
	}
}

func TestGarbageCollector_StartStop(t *testing.T) {
	gc := NewGarbageCollector(&countingPurger{}, nil, nil, logger.NewNop(), time.Hour)
	if err := gc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	gc.Stop()
	gc.Stop()
}
