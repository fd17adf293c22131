// Package fetch retrieves channel snapshots through the rate limiter and the
// snapshot cache, one at a time or in bounded concurrent batches.
package fetch

import (
	"context"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/livewatch/internal/cache"
	"github.com/MrSnakeDoc/livewatch/internal/clock"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/metrics"
	"github.com/MrSnakeDoc/livewatch/internal/ratelimit"
	"github.com/MrSnakeDoc/livewatch/internal/upstream"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 200 * time.Millisecond
)

// Source fetches the raw channel payload.
type Source interface {
	Channel(ctx context.Context, id string) (*upstream.ChannelPayload, error)
}

// LastSeenStore persists the last time each channel was observed live.
type LastSeenStore interface {
	LastSeen(ctx context.Context, id string) (time.Time, bool)
	SetLastSeen(ctx context.Context, id string, at time.Time) bool
}

type Options struct {
	Source     Source
	Limiter    *ratelimit.Limiter
	Cache      *cache.TTL[*domain.Snapshot]
	LastSeen   LastSeenStore
	Clock      clock.Clock
	Logger     logger.Logger
	Metrics    metrics.Recorder
	BatchSize  int
	BatchDelay time.Duration
	CacheTTL   time.Duration
}

type Pipeline struct {
	source     Source
	limiter    *ratelimit.Limiter
	cache      *cache.TTL[*domain.Snapshot]
	lastSeen   LastSeenStore
	clock      clock.Clock
	logger     logger.Logger
	metrics    metrics.Recorder
	batchSize  int
	batchDelay time.Duration
	cacheTTL   time.Duration
}

func New(opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.DefaultMax, ratelimit.DefaultWindow, opts.Clock)
	}
	if opts.Cache == nil {
		opts.Cache = cache.New[*domain.Snapshot](opts.Clock, cache.DefaultSnapshotTTL)
	}
	if opts.LastSeen == nil {
		opts.LastSeen = noLastSeen{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	return &Pipeline{
		source:     opts.Source,
		limiter:    opts.Limiter,
		cache:      opts.Cache,
		lastSeen:   opts.LastSeen,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		batchSize:  opts.BatchSize,
		batchDelay: opts.BatchDelay,
		cacheTTL:   opts.CacheTTL,
	}
}

// FetchOne returns the snapshot for id. Ordinary failures yield a fallback
// snapshot with FetchError set; the error is non-nil only when ctx was
// cancelled.
func (p *Pipeline) FetchOne(ctx context.Context, id string) (*domain.Snapshot, error) {
	id = domain.NormalizeID(id)

	snap, err := p.get(ctx, id)
	if err == nil {
		p.metrics.FetchResult(metrics.OutcomeOK)
		return snap, nil
	}
	if ctx.Err() != nil {
		p.cancelled(id)
		return nil, ctx.Err()
	}

	p.logger.Warn("fetch failed, using fallback snapshot",
		logger.String("channel", id), logger.Error(err))
	p.metrics.FetchResult(metrics.OutcomeFallback)
	return p.fallback(ctx, id), nil
}

// FetchMany fetches ids in batches of the configured size. Ids are normalized
// first; empty ids are dropped and ids equal after normalization are fetched
// once, so batching runs over the distinct ids. Items inside a
// batch run concurrently; the next batch starts only after the previous one
// settled plus the inter-batch delay. Failed items are dropped from the
// result. The error is non-nil only when ctx was cancelled, in which case no
// partial result is returned.
func (p *Pipeline) FetchMany(ctx context.Context, ids []string) ([]*domain.Snapshot, error) {
	ids = lo.Uniq(lo.Map(ids, func(id string, _ int) string { return domain.NormalizeID(id) }))
	ids = lo.Compact(ids)

	out := make([]*domain.Snapshot, 0, len(ids))
	for i, batch := range Batches(ids, p.batchSize) {
		if i > 0 {
			if err := p.clock.Sleep(ctx, p.batchDelay); err != nil {
				p.logger.Debug("fetch aborted between batches", logger.String("reason", "cancelled"))
				return nil, err
			}
		}

		results, err := p.runBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}
	return out, nil
}

func (p *Pipeline) runBatch(ctx context.Context, batch []string) ([]*domain.Snapshot, error) {
	p.metrics.Batch(len(batch))

	results := make([]*domain.Snapshot, len(batch))
	var g errgroup.Group
	g.SetLimit(p.batchSize)

	for i, id := range batch {
		g.Go(func() error {
			snap, err := p.get(ctx, id)
			switch {
			case err == nil:
				p.metrics.FetchResult(metrics.OutcomeOK)
				results[i] = snap
			case ctx.Err() != nil:
				p.cancelled(id)
				return ctx.Err()
			default:
				p.logger.Warn("fetch failed, dropping from batch",
					logger.String("channel", id), logger.Error(err))
				p.metrics.FetchResult(metrics.OutcomeDropped)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lo.Compact(results), nil
}

// get serves id from the cache or the network. Side effects (cache write,
// last-seen update) are skipped once ctx is done.
func (p *Pipeline) get(ctx context.Context, id string) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if snap, ok := p.cache.Get(id); ok {
		p.metrics.CacheHit()
		return snap.Clone(), nil
	}
	p.metrics.CacheMiss()

	if err := p.limiter.Admit(ctx); err != nil {
		return nil, err
	}
	payload, err := p.source.Channel(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := p.clock.Now()
	snap := payload.Snapshot(id, now)
	p.stampLastSeen(ctx, snap, now)

	p.cache.Put(id, snap, p.cacheTTL)
	return snap.Clone(), nil
}

func (p *Pipeline) stampLastSeen(ctx context.Context, snap *domain.Snapshot, now time.Time) {
	if snap.IsLive {
		seen := now
		snap.LastSeen = &seen
		p.lastSeen.SetLastSeen(ctx, snap.ID, now)
		return
	}
	seen := now.Add(-domain.DefaultLastSeenAge)
	if stored, ok := p.lastSeen.LastSeen(ctx, snap.ID); ok {
		seen = stored
	}
	snap.LastSeen = &seen
}

func (p *Pipeline) fallback(ctx context.Context, id string) *domain.Snapshot {
	var seen *time.Time
	if stored, ok := p.lastSeen.LastSeen(ctx, id); ok {
		seen = &stored
	}
	return domain.NewFallbackSnapshot(id, seen, p.clock.Now())
}

func (p *Pipeline) cancelled(id string) {
	p.metrics.FetchResult(metrics.OutcomeCancelled)
	p.logger.Debug("fetch aborted", logger.String("channel", id), logger.String("reason", "cancelled"))
}

// Batches splits ids into consecutive chunks of at most size.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return lo.Chunk(ids, size)
}

type noLastSeen struct{}

func (noLastSeen) LastSeen(context.Context, string) (time.Time, bool)   { return time.Time{}, false }
func (noLastSeen) SetLastSeen(context.Context, string, time.Time) bool { return false }
