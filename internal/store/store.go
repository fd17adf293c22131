// Package store is the persistence adapter. Every key is namespaced, and no
// operation returns an error: failures are logged, counted and degrade to a
// no-op so callers never crash on an unavailable backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/cache"
	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
)

const DefaultNamespace = "livewatch:"

// ErrNotFound is returned by backends for a missing key.
var ErrNotFound = errors.New("store: key not found")

// Backend is the raw key/value + set storage the Store sits on.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	SetAdd(ctx context.Context, key string, members ...string) error
	SetRemove(ctx context.Context, key string, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetContains(ctx context.Context, key, member string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

type Options struct {
	Namespace string
	// CacheTTL is the default TTL of the user-data cache helpers.
	CacheTTL time.Duration
	Clock    clock.Clock
	Logger   logger.Logger
	Metrics  metrics.Recorder
}

type Store struct {
	backend  Backend
	ns       string
	cacheTTL time.Duration
	clock    clock.Clock
	logger   logger.Logger
	metrics  metrics.Recorder
	zstd     *Zstd
}

func New(backend Backend, opts Options) (*Store, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultUserDataTTL
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	z, err := NewZstd()
	if err != nil {
		return nil, err
	}
	return &Store{
		backend:  backend,
		ns:       opts.Namespace,
		cacheTTL: opts.CacheTTL,
		clock:    opts.Clock,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		zstd:     z,
	}, nil
}

func (s *Store) key(k string) string { return s.ns + k }

// Get decodes the JSON value under key into dst. It reports false when the
// key is missing or unreadable.
func (s *Store) Get(ctx context.Context, key string, dst any) bool {
	raw, ok := s.getRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.warn("decode", key, err)
		return false
	}
	return true
}

// Set stores v as JSON under key.
func (s *Store) Set(ctx context.Context, key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.warn("encode", key, err)
		return false
	}
	return s.setRaw(ctx, key, data)
}

func (s *Store) Remove(ctx context.Context, key string) bool {
	if err := s.backend.Delete(ctx, s.key(key)); err != nil {
		s.warn("delete", key, err)
		return false
	}
	return true
}

// Healthy pings the backend.
func (s *Store) Healthy(ctx context.Context) error {
	if err := s.backend.Ping(ctx); err != nil {
		return fmt.Errorf("store backend: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.zstd.Close()
	return s.backend.Close()
}

func (s *Store) getRaw(ctx context.Context, key string) ([]byte, bool) {
	raw, err := s.backend.Get(ctx, s.key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.warn("get", key, err)
		}
		return nil, false
	}
	return raw, true
}

func (s *Store) setRaw(ctx context.Context, key string, data []byte) bool {
	if err := s.backend.Set(ctx, s.key(key), data); err != nil {
		s.warn("set", key, err)
		return false
	}
	return true
}

func (s *Store) warn(op, key string, err error) {
	s.metrics.StoreError(op)
	s.logger.Warn("store operation failed",
		logger.String("op", op),
		logger.String("key", key),
		logger.Error(err))
}
