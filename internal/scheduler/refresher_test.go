package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/session"
)

type fakeRefreshSession struct {
	mu       sync.Mutex
	reasons  []string
	settings domain.Settings
	err      error
	called   chan string
}

func (f *fakeRefreshSession) Refresh(_ context.Context, reason string) (session.RefreshResult, error) {
	f.mu.Lock()
	f.reasons = append(f.reasons, reason)
	err := f.err
	f.mu.Unlock()
	if f.called != nil {
		f.called <- reason
	}
	return session.RefreshResult{Reason: reason}, err
}

func (f *fakeRefreshSession) Settings() domain.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func TestRefresherInitialAndManual(t *testing.T) {
	s := &fakeRefreshSession{settings: domain.Settings{AutoRefresh: true, RefreshIntervalSeconds: 3600}, called: make(chan string, 4)}
	trigger := make(chan struct{}, 1)
	r := NewRefresher(s, logger.NewNop(), time.Hour, trigger)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := <-s.called; got != session.ReasonInitial {
		t.Errorf("first refresh = %q, want initial", got)
	}

	trigger <- struct{}{}
	select {
	case got := <-s.called:
		if got != session.ReasonManual {
			t.Errorf("triggered refresh = %q, want manual", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("manual trigger did not refresh")
	}
	r.Stop()
}

func TestRefresherToleratesSupersededInitial(t *testing.T) {
	s := &fakeRefreshSession{err: session.ErrRefreshSuperseded, settings: domain.Settings{RefreshIntervalSeconds: 60}}
	r := NewRefresher(s, logger.NewNop(), time.Minute, nil)
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Stop()
}

func TestRefresherInterval(t *testing.T) {
	s := &fakeRefreshSession{}
	r := NewRefresher(s, logger.NewNop(), 30*time.Second, nil)
	if got := r.currentInterval(); got != 30*time.Second {
		t.Errorf("currentInterval() = %v, want 30s", got)
	}
	s.settings.RefreshIntervalSeconds = 90
	if got := r.currentInterval(); got != 90*time.Second {
		t.Errorf("currentInterval() = %v, want 90s", got)
	}
}
