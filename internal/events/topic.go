// Package events is livewatch's in-process publish/subscribe. Each topic is
// typed by its payload; delivery is synchronous and in subscription order.
package events

import (
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

// Handler receives a published value. A returned error or a panic is logged
// and does not stop delivery to the remaining subscribers.
type Handler[T any] func(T) error

type subscription[T any] struct {
	id uint64
	fn Handler[T]
}

type Topic[T any] struct {
	name   string
	logger logger.Logger

	mu   sync.RWMutex
	next uint64
	subs []subscription[T]
}

func NewTopic[T any](name string, log logger.Logger) *Topic[T] {
	if log == nil {
		log = logger.NewNop()
	}
	return &Topic[T]{name: name, logger: log}
}

func (t *Topic[T]) Name() string { return t.name }

// Subscribe registers fn and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (t *Topic[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	t.mu.Lock()
	t.next++
	id := t.next
	t.subs = append(t.subs, subscription[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, s := range t.subs {
				if s.id == id {
					t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber and returns how many failed.
func (t *Topic[T]) Publish(v T) int {
	t.mu.RLock()
	subs := make([]subscription[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.RUnlock()

	failed := 0
	for _, s := range subs {
		if err := t.deliver(s.fn, v); err != nil {
			failed++
			t.logger.Error("event subscriber failed",
				logger.String("topic", t.name),
				logger.Error(err))
		}
	}
	return failed
}

// Subscribers reports the current subscriber count.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

func (t *Topic[T]) deliver(fn Handler[T], v T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(v)
}
