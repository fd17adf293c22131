// Package ratelimit provides sliding-window admission control for outbound
// upstream requests.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
)

const (
	DefaultMax      = 10
	DefaultWindow   = time.Second
	DefaultMaxWaits = 100
)

// ErrTooManyWaits is returned when admission was re-evaluated more than the
// configured number of times without success.
var ErrTooManyWaits = errors.New("ratelimit: admission wait ceiling reached")

// WaitObserver is notified every time a caller is suspended.
type WaitObserver func(wait time.Duration)

type Option func(*Limiter)

// WithMaxWaits bounds how many times a single Admit call may sleep and re-check.
func WithMaxWaits(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.maxWaits = n
		}
	}
}

// WithWaitObserver registers a hook called before each suspension.
func WithWaitObserver(fn WaitObserver) Option {
	return func(l *Limiter) { l.onWait = fn }
}

// Limiter admits at most max calls in any rolling window.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	stamps   []time.Time // admission times, oldest first
	clock    clock.Clock
	maxWaits int
	onWait   WaitObserver
}

func New(max int, window time.Duration, clk clock.Clock, opts ...Option) *Limiter {
	if max < 1 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = clock.Real{}
	}
	l := &Limiter{
		max:      max,
		window:   window,
		stamps:   make([]time.Time, 0, max),
		clock:    clk,
		maxWaits: DefaultMaxWaits,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit suspends the caller until a slot in the window is free and records the
// admission. It returns ctx.Err() if the context ends while waiting.
func (l *Limiter) Admit(ctx context.Context) error {
	for waits := 0; ; waits++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := l.tryAdmit()
		if ok {
			return nil
		}
		if waits >= l.maxWaits {
			return fmt.Errorf("%w (%d waits)", ErrTooManyWaits, waits)
		}

		if l.onWait != nil {
			l.onWait(wait)
		}
		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit records an admission when the window has room, otherwise returns
// how long until the oldest stamp leaves the window.
func (l *Limiter) tryAdmit() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.pruneLocked(now)

	if len(l.stamps) < l.max {
		l.stamps = append(l.stamps, now)
		return 0, true
	}
	return l.window - now.Sub(l.stamps[0]), false
}

// pruneLocked drops stamps that are at least one window old, so the wait it
// computes afterwards is always positive.
func (l *Limiter) pruneLocked(now time.Time) {
	keep := 0
	for keep < len(l.stamps) && now.Sub(l.stamps[keep]) >= l.window {
		keep++
	}
	if keep > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[keep:]...)
	}
}

// InFlight reports how many admissions fall inside the current window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.clock.Now())
	return len(l.stamps)
}
