// Package local is an in-process store backend. With a file path it snapshots
// its full state after every write as zstd-compressed JSON, replacing the file
// atomically.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/store"
)

type fileState struct {
	Values map[string][]byte   `json:"values"`
	Sets   map[string][]string `json:"sets"`
}

type Backend struct {
	mu     sync.RWMutex
	values map[string][]byte
	sets   map[string]map[string]struct{}
	path   string
	zstd   *store.Zstd
	logger logger.Logger
}

// New returns a backend. An empty path keeps everything in memory; otherwise
// existing state is loaded from path.
func New(path string, log logger.Logger) (*Backend, error) {
	z, err := store.NewZstd()
	if err != nil {
		return nil, err
	}
	b := &Backend{
		values: map[string][]byte{},
		sets:   map[string]map[string]struct{}{},
		path:   path,
		zstd:   z,
		logger: log,
	}
	if err := b.load(); err != nil {
		z.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = slices.Clone(value)
	return b.flushLocked()
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, v := b.values[key]
	_, s := b.sets[key]
	if !v && !s {
		return nil
	}
	delete(b.values, key)
	delete(b.sets, key)
	return b.flushLocked()
}

func (b *Backend) Keys(_ context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0)
	for k := range b.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range b.sets {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (b *Backend) SetAdd(_ context.Context, key string, members ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.sets[key]
	if !ok {
		set = map[string]struct{}{}
		b.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return b.flushLocked()
}

func (b *Backend) SetRemove(_ context.Context, key string, members ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(b.sets, key)
	}
	return b.flushLocked()
}

func (b *Backend) SetMembers(_ context.Context, key string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.sets[key]))
	for m := range b.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (b *Backend) SetContains(_ context.Context, key, member string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.sets[key][member]
	return ok, nil
}

func (b *Backend) Ping(context.Context) error { return nil }

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.flushLocked()
	b.zstd.Close()
	return err
}

func (b *Backend) load() error {
	if b.path == "" {
		return nil
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}
	raw, err := b.zstd.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress state file %s: %w", b.path, err)
	}
	var st fileState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("decode state file %s: %w", b.path, err)
	}
	for k, v := range st.Values {
		b.values[k] = v
	}
	for k, members := range st.Sets {
		set := make(map[string]struct{}, len(members))
		for _, m := range members {
			set[m] = struct{}{}
		}
		b.sets[k] = set
	}
	b.logger.Info("local store loaded",
		logger.String("path", b.path),
		logger.Int("values", len(b.values)),
		logger.Int("sets", len(b.sets)))
	return nil
}

// flushLocked writes the whole state to a temp file and renames it over the
// target, so a crash never leaves a half-written file behind.
func (b *Backend) flushLocked() error {
	if b.path == "" {
		return nil
	}
	st := fileState{
		Values: b.values,
		Sets:   make(map[string][]string, len(b.sets)),
	}
	for k, set := range b.sets {
		members := make([]string, 0, len(set))
		for m := range set {
			members = append(members, m)
		}
		slices.Sort(members)
		st.Sets[k] = members
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := b.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := f.Write(b.zstd.Compress(raw)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp state file: %w", err)
	}
	return os.Rename(tmp, b.path)
}
