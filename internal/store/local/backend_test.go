package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/store"
)

func TestMemoryOnly(t *testing.T) {
	ctx := context.Background()
	b, err := New("", logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	if _, err := b.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	_ = b.Set(ctx, "ns:a", []byte("1"))
	_ = b.Set(ctx, "ns:cache:x", []byte("2"))
	_ = b.SetAdd(ctx, "ns:cache:set", "m")
	_ = b.Set(ctx, "other", []byte("3"))

	keys, _ := b.Keys(ctx, "ns:cache:")
	if diff := cmp.Diff([]string{"ns:cache:set", "ns:cache:x"}, keys); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	_ = b.Delete(ctx, "ns:cache:set")
	if ok, _ := b.SetContains(ctx, "ns:cache:set", "m"); ok {
		t.Error("Delete should remove sets too")
	}
}

func TestSetOperations(t *testing.T) {
	ctx := context.Background()
	b, _ := New("", logger.NewNop())
	defer b.Close()

	_ = b.SetAdd(ctx, "fav", "alice", "bob", "alice")
	members, _ := b.SetMembers(ctx, "fav")
	if len(members) != 2 {
		t.Errorf("SetMembers() = %v, want 2 members", members)
	}
	_ = b.SetRemove(ctx, "fav", "alice")
	if ok, _ := b.SetContains(ctx, "fav", "alice"); ok {
		t.Error("alice should be removed")
	}
	if ok, _ := b.SetContains(ctx, "fav", "bob"); !ok {
		t.Error("bob should remain")
	}
}

func TestPersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "livewatch.state")

	b, err := New(path, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = b.Set(ctx, "settings", []byte(`{"auto_refresh":true}`))
	_ = b.SetAdd(ctx, "favorites", "alice", "bob")
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}

	reopened, err := New(path, logger.NewNop())
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "settings")
	if err != nil || string(got) != `{"auto_refresh":true}` {
		t.Errorf("Get(settings) = %q, %v", got, err)
	}
	if ok, _ := reopened.SetContains(ctx, "favorites", "bob"); !ok {
		t.Error("favorites not restored")
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.state")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path, logger.NewNop()); err == nil {
		t.Error("New() with corrupt file should fail")
	}
}
