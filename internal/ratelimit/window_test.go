package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestAdmitEleventhCallWaitsFullWindow(t *testing.T) {
	clk := clock.NewFake(epoch)
	l := New(10, time.Second, clk)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := l.Admit(ctx); err != nil {
			t.Fatalf("Admit() #%d error = %v", i+1, err)
		}
	}
	if got := clk.Now(); !got.Equal(epoch) {
		t.Fatalf("first 10 admissions should not wait, clock moved to %v", got)
	}

	if err := l.Admit(ctx); err != nil {
		t.Fatalf("Admit() #11 error = %v", err)
	}
	if elapsed := clk.Now().Sub(epoch); elapsed < time.Second {
		t.Errorf("11th admission at +%v, want >= 1s", elapsed)
	}
}

func TestAdmitNeverExceedsWindow(t *testing.T) {
	clk := clock.NewFake(epoch)
	var (
		mu       sync.Mutex
		admitted []time.Time
	)
	l := New(3, 500*time.Millisecond, clk)

	for i := 0; i < 20; i++ {
		if err := l.Admit(context.Background()); err != nil {
			t.Fatalf("Admit() error = %v", err)
		}
		mu.Lock()
		admitted = append(admitted, clk.Now())
		mu.Unlock()
		clk.Advance(50 * time.Millisecond)
	}

	for i := range admitted {
		count := 0
		for j := i; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < 500*time.Millisecond {
				count++
			}
		}
		if count > 3 {
			t.Fatalf("window starting at admission %d holds %d calls, want <= 3", i, count)
		}
	}
}

func TestAdmitHonoursCancellation(t *testing.T) {
	l := New(1, time.Hour, clock.NewFake(epoch))
	if err := l.Admit(context.Background()); err != nil {
		t.Fatalf("Admit() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Admit(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Admit() error = %v, want context.Canceled", err)
	}
}

func TestAdmitWaitCeiling(t *testing.T) {
	// A clock that never moves forces the limiter to keep re-checking.
	l := New(1, time.Second, stuckClock{now: epoch}, WithMaxWaits(3))
	if err := l.Admit(context.Background()); err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if err := l.Admit(context.Background()); !errors.Is(err, ErrTooManyWaits) {
		t.Errorf("Admit() error = %v, want ErrTooManyWaits", err)
	}
}

func TestWaitObserverAndInFlight(t *testing.T) {
	clk := clock.NewFake(epoch)
	var waits []time.Duration
	l := New(2, time.Second, clk, WithWaitObserver(func(d time.Duration) { waits = append(waits, d) }))

	for i := 0; i < 2; i++ {
		_ = l.Admit(context.Background())
	}
	if got := l.InFlight(); got != 2 {
		t.Errorf("InFlight() = %d, want 2", got)
	}

	clk.Advance(400 * time.Millisecond)
	_ = l.Admit(context.Background())

	if len(waits) != 1 || waits[0] != 600*time.Millisecond {
		t.Errorf("waits = %v, want [600ms]", waits)
	}
}

type stuckClock struct{ now time.Time }

func (s stuckClock) Now() time.Time { return s.now }

func (s stuckClock) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
