package store

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

type cacheEnvelope struct {
	Value    json.RawMessage `json:"value"`
	StoredAt time.Time       `json:"stored_at"`
	TTLMs    int64           `json:"ttl_ms"`
}

func (e cacheEnvelope) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) > time.Duration(e.TTLMs)*time.Millisecond
}

// SetCache stores v under name with ttl; ttl <= 0 uses the user-data default.
func (s *Store) SetCache(ctx context.Context, name string, v any, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = s.cacheTTL
	}
	value, err := json.Marshal(v)
	if err != nil {
		s.warn("cache.encode", name, err)
		return false
	}
	return s.Set(ctx, CacheKey(name), cacheEnvelope{
		Value:    value,
		StoredAt: s.clock.Now(),
		TTLMs:    ttl.Milliseconds(),
	})
}

// GetCache decodes a live entry into dst. Expired entries are evicted on read.
func (s *Store) GetCache(ctx context.Context, name string, dst any) bool {
	var env cacheEnvelope
	if !s.Get(ctx, CacheKey(name), &env) {
		return false
	}
	if env.expired(s.clock.Now()) {
		s.Remove(ctx, CacheKey(name))
		return false
	}
	if err := json.Unmarshal(env.Value, dst); err != nil {
		s.warn("cache.decode", name, err)
		return false
	}
	return true
}

// ClearCache evicts every expired or unreadable cache entry and returns how
// many were removed.
func (s *Store) ClearCache(ctx context.Context) int {
	keys, err := s.backend.Keys(ctx, s.key(KeyPrefixCache))
	if err != nil {
		s.warn("cache.scan", KeyPrefixCache, err)
		return 0
	}

	now := s.clock.Now()
	var stale []string
	for _, full := range keys {
		var env cacheEnvelope
		if s.Get(ctx, strings.TrimPrefix(full, s.ns), &env) && !env.expired(now) {
			continue
		}
		stale = append(stale, full)
	}
	if len(stale) == 0 {
		return 0
	}

	if bulk, ok := s.backend.(bulkDeleter); ok {
		if err := bulk.DeleteMany(ctx, stale); err != nil {
			s.warn("cache.clear", KeyPrefixCache, err)
			return 0
		}
		return len(stale)
	}

	removed := 0
	for _, full := range stale {
		if s.Remove(ctx, strings.TrimPrefix(full, s.ns)) {
			removed++
		}
	}
	return removed
}

// bulkDeleter is implemented by backends that can drop many keys in one call.
type bulkDeleter interface {
	DeleteMany(ctx context.Context, keys []string) error
}
