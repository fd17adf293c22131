package redis

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/livewatch/internal/store"
)

// These tests need a disposable redis; set LIVEWATCH_TEST_REDIS_ADDR to run them.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	addr := os.Getenv("LIVEWATCH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LIVEWATCH_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		_ = client.Close()
	})
	return New(client)
}

func TestBackendValues(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	if _, err := b.Get(ctx, "lw:missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := b.Set(ctx, "lw:cache:a", []byte("1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	_ = b.Set(ctx, "lw:cache:b", []byte("2"))

	keys, err := b.Keys(ctx, "lw:cache:")
	if err != nil || len(keys) != 2 {
		t.Fatalf("Keys() = %v, %v; want 2 keys", keys, err)
	}
	if err := b.DeleteMany(ctx, keys); err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}
	if keys, _ := b.Keys(ctx, "lw:cache:"); len(keys) != 0 {
		t.Errorf("Keys() after DeleteMany = %v", keys)
	}
}

func TestBackendSets(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	_ = b.SetAdd(ctx, "lw:favorites", "alice", "bob")
	_ = b.SetRemove(ctx, "lw:favorites", "alice")

	if ok, _ := b.SetContains(ctx, "lw:favorites", "alice"); ok {
		t.Error("alice should be removed")
	}
	members, _ := b.SetMembers(ctx, "lw:favorites")
	if len(members) != 1 || members[0] != "bob" {
		t.Errorf("SetMembers() = %v, want [bob]", members)
	}
}
