// Package watchlist loads the set of watched channels and relays mutations to
// the external proxy that owns the canonical document.
package watchlist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
)

// ErrUnavailable means no source produced a watchlist.
var ErrUnavailable = errors.New("watchlist: unavailable")

// Origin says where a loaded watchlist came from.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginStored Origin = "stored"
	OriginSeed   Origin = "seed"
)

// remoteCacheName keys the cached remote document in the store cache.
const remoteCacheName = "watchlist:remote"

// Persisted is the last-known copy kept in the store.
type Persisted interface {
	Watchlist(ctx context.Context) ([]string, bool)
	SaveWatchlist(ctx context.Context, ids []string) bool
}

// RemoteCache keeps the last remote document with its validators so reloads
// can be conditional.
type RemoteCache interface {
	SetCache(ctx context.Context, name string, v any, ttl time.Duration) bool
	GetCache(ctx context.Context, name string, dst any) bool
}

type SourceOptions struct {
	URL        string
	HTTPClient *http.Client
	Store      Persisted
	Cache      RemoteCache
	Seed       *SeedLoader
	Clock      clock.Clock
	Logger     logger.Logger
}

type Source struct {
	url    string
	client *http.Client
	store  Persisted
	cache  RemoteCache
	seed   *SeedLoader
	clock  clock.Clock
	logger logger.Logger
}

type cachedDocument struct {
	ETag         string   `json:"etag,omitempty"`
	LastModified string   `json:"last_modified,omitempty"`
	IDs          []string `json:"ids"`
}

// remoteDocument is the versioned form of the remote file. A bare JSON array
// of ids is accepted too.
type remoteDocument struct {
	Version   int      `json:"version"`
	Streamers []string `json:"streamers"`
}

func NewSource(opts SourceOptions) *Source {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Source{
		url:    opts.URL,
		client: opts.HTTPClient,
		store:  opts.Store,
		cache:  opts.Cache,
		seed:   opts.Seed,
		clock:  opts.Clock,
		logger: opts.Logger,
	}
}

// Load fetches the remote watchlist and persists it. On failure it falls back
// to the persisted copy, then to the seed file.
func (s *Source) Load(ctx context.Context) ([]string, Origin, error) {
	ids, err := s.fetchRemote(ctx)
	if err == nil {
		if s.store != nil {
			s.store.SaveWatchlist(ctx, ids)
		}
		return ids, OriginRemote, nil
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	s.logger.Warn("remote watchlist unavailable, falling back", logger.Error(err))

	if s.store != nil {
		if stored, ok := s.store.Watchlist(ctx); ok {
			return Normalize(stored), OriginStored, nil
		}
	}
	if s.seed != nil {
		cfg, seedErr := s.seed.Load()
		if seedErr == nil {
			ids, seedErr := cfg.IDs()
			if seedErr == nil {
				return ids, OriginSeed, nil
			}
			err = errors.Join(err, seedErr)
		} else {
			err = errors.Join(err, seedErr)
		}
	}
	return nil, "", fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (s *Source) fetchRemote(ctx context.Context) ([]string, error) {
	if s.url == "" {
		return nil, errors.New("no remote watchlist configured")
	}
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parse watchlist url: %w", err)
	}
	q := u.Query()
	q.Set("v", strconv.FormatInt(s.clock.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build watchlist request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	var cached cachedDocument
	conditional := s.cache != nil && s.cache.GetCache(ctx, remoteCacheName, &cached)
	if conditional {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch watchlist: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode == http.StatusNotModified && conditional {
		s.logger.Debug("remote watchlist not modified", logger.Int("count", len(cached.IDs)))
		return Normalize(cached.IDs), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch watchlist: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	ids, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	etag, modified := resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")
	if s.cache != nil && (etag != "" || modified != "") {
		s.cache.SetCache(ctx, remoteCacheName, cachedDocument{ETag: etag, LastModified: modified, IDs: ids}, 0)
	}
	return ids, nil
}

func parseDocument(body []byte) ([]string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty watchlist document")
	}

	var ids []string
	if body[0] == '[' {
		if err := json.Unmarshal(body, &ids); err != nil {
			return nil, fmt.Errorf("decode watchlist: %w", err)
		}
	} else {
		var doc remoteDocument
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode watchlist: %w", err)
		}
		ids = doc.Streamers
	}
	return Normalize(ids), nil
}
