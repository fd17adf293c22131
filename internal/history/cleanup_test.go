package history

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
)

func TestCleanupPurgesOldRecords(t *testing.T) {
	clk := clock.NewFake(start)
	p := &memPersister{}
	a := newAggregator(clk, p, nil)
	ctx := context.Background()

	// An old closed session.
	a.Record(ctx, snap("alice", true, 10, start))
	a.Record(ctx, snap("alice", false, 0, start.Add(time.Hour)))
	// A recent one still open.
	recent := start.Add(40 * 24 * time.Hour)
	a.Record(ctx, snap("alice", true, 20, recent))

	clk.Set(recent.Add(time.Hour))
	removed := a.Cleanup(ctx)
	if removed == 0 {
		t.Fatal("Cleanup() removed nothing")
	}

	h, _ := a.Get("alice")
	if len(h.Sessions) != 1 || !h.Sessions[0].Open() {
		t.Fatalf("sessions after cleanup = %+v, want only the open one", h.Sessions)
	}
	if h.TotalStreamTime != 0 {
		t.Errorf("TotalStreamTime = %v, want 0 after purging the only closed session", h.TotalStreamTime)
	}
	if h.StreamCount != 1 {
		t.Errorf("StreamCount = %d, want 1", h.StreamCount)
	}
	for _, c := range h.StatusChanges {
		if c.At.Before(recent) {
			t.Errorf("old status change survived: %+v", c)
		}
	}
	if len(h.ViewerHistory) != 1 {
		t.Errorf("viewer history = %d samples, want 1", len(h.ViewerHistory))
	}
}

func TestCleanupKeepsLatestStatusChange(t *testing.T) {
	clk := clock.NewFake(start)
	a := newAggregator(clk, &memPersister{}, nil)
	ctx := context.Background()

	a.Record(ctx, snap("bob", true, 10, start))
	a.Record(ctx, snap("bob", false, 0, start.Add(time.Hour)))

	clk.Set(start.Add(60 * 24 * time.Hour))
	a.Cleanup(ctx)

	h, _ := a.Get("bob")
	last, ok := h.LastStatus()
	if !ok || last.IsLive {
		t.Fatalf("LastStatus() = %+v, %v; want the offline change kept", last, ok)
	}
	if c := a.Record(ctx, snap("bob", false, 0, clk.Now())); c != nil {
		t.Errorf("offline after cleanup should not count as a change, got %+v", c)
	}
}

func TestCleanupNothingToDo(t *testing.T) {
	p := &memPersister{}
	a := newAggregator(clock.NewFake(start), p, nil)
	a.Record(context.Background(), snap("c", true, 1, start))
	saves := p.saves

	if got := a.Cleanup(context.Background()); got != 0 {
		t.Errorf("Cleanup() = %d, want 0", got)
	}
	if p.saves != saves {
		t.Error("Cleanup() without removals should not persist")
	}
}
