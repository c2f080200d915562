package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const indexerLockKey = "indexer"

// IndexerOptions tunes one indexing pass.
type IndexerOptions struct {
	// StartBlock is where indexing begins on an empty cursor.
	StartBlock uint64
	// MaxBlocks caps the span scanned per pass.
	MaxBlocks uint64
	// LockTTL bounds how long a crashed indexer can hold the lock.
	LockTTL time.Duration
	// Concurrency limits parallel opinion reads.
	Concurrency int
}

func (o IndexerOptions) withDefaults() IndexerOptions {
	if o.MaxBlocks == 0 {
		o.MaxBlocks = 50_000
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 2 * time.Minute
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	return o
}

// IndexResult summarises one pass.
type IndexResult struct {
	FromBlock uint64
	ToBlock   uint64
	Trades    int
	Opinions  int
	Pools     int
	// CaughtUp is true when ToBlock reached the chain head.
	CaughtUp bool
	// Skipped is true when another instance held the lock.
	Skipped bool
}

// Indexer copies contract state and events into the stores.
type Indexer struct {
	chain    domain.ChainReader
	opinions domain.OpinionStore
	events   domain.TradeEventStore
	pools    domain.PoolStore
	cache    domain.OpinionCache
	bus      domain.SignalBus
	locks    domain.LockManager
	opts     IndexerOptions
	logger   *slog.Logger
	trigger  chan struct{}
}

// NewIndexer creates an Indexer. cache, bus and locks may be nil.
func NewIndexer(
	chain domain.ChainReader,
	opinions domain.OpinionStore,
	events domain.TradeEventStore,
	pools domain.PoolStore,
	cache domain.OpinionCache,
	bus domain.SignalBus,
	locks domain.LockManager,
	opts IndexerOptions,
	logger *slog.Logger,
) *Indexer {
	return &Indexer{
		chain:    chain,
		opinions: opinions,
		events:   events,
		pools:    pools,
		cache:    cache,
		bus:      bus,
		locks:    locks,
		opts:     opts.withDefaults(),
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run executes a single pass from the cursor toward the chain head. The
// cursor only advances after everything in the range is stored, so a failed
// pass is retried in full.
func (ix *Indexer) Run(ctx context.Context) (IndexResult, error) {
	if ix.locks != nil {
		unlock, err := ix.locks.Acquire(ctx, indexerLockKey, ix.opts.LockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				ix.logger.DebugContext(ctx, "indexer: lock held elsewhere, skipping pass")
				return IndexResult{Skipped: true}, nil
			}
			return IndexResult{}, fmt.Errorf("indexer: acquire lock: %w", err)
		}
		defer unlock()
	}

	last, err := ix.events.LastBlock(ctx)
	if err != nil {
		return IndexResult{}, fmt.Errorf("indexer: read cursor: %w", err)
	}
	from := ix.opts.StartBlock
	if last > 0 && last+1 > from {
		from = last + 1
	}

	head, err := ix.chain.LatestBlock(ctx)
	if err != nil {
		return IndexResult{}, fmt.Errorf("indexer: latest block: %w", err)
	}
	if from > head {
		return IndexResult{FromBlock: from, ToBlock: head, CaughtUp: true}, nil
	}
	to := min(head, from+ix.opts.MaxBlocks-1)

	scan, err := ix.chain.Scan(ctx, &from, &to)
	if err != nil {
		return IndexResult{}, fmt.Errorf("indexer: scan [%d,%d]: %w", from, to, err)
	}

	if err := ix.events.InsertBatch(ctx, scan.Trades); err != nil {
		return IndexResult{}, fmt.Errorf("indexer: store events: %w", err)
	}

	touched := touchedOpinions(scan)
	if last == 0 {
		missing, err := ix.missingOpinions(ctx)
		if err != nil {
			return IndexResult{}, err
		}
		touched = mergeIDs(touched, missing)
	}

	refreshed, err := ix.refreshOpinions(ctx, touched, scan.Creations)
	if err != nil {
		return IndexResult{}, err
	}

	if err := ix.storePools(ctx, scan); err != nil {
		return IndexResult{}, err
	}

	if err := ix.events.SetLastBlock(ctx, to); err != nil {
		return IndexResult{}, fmt.Errorf("indexer: advance cursor: %w", err)
	}

	res := IndexResult{
		FromBlock: from,
		ToBlock:   to,
		Trades:    len(scan.Trades),
		Opinions:  refreshed,
		Pools:     len(scan.Pools),
		CaughtUp:  to >= head,
	}
	if res.Trades > 0 || res.Opinions > 0 || res.Pools > 0 || len(scan.Contributions) > 0 {
		ix.announce(ctx, touched, res)
	}
	return res, nil
}

// Trigger returns a channel that wakes RunLoop early. Sends coalesce
// while a wake-up is pending.
func (ix *Indexer) Trigger() chan<- struct{} { return ix.trigger }

// RunLoop runs passes until ctx is cancelled. A pass that did not reach the
// head is followed immediately by another.
func (ix *Indexer) RunLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := ix.Run(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ix.logger.ErrorContext(ctx, "indexer: pass failed", slog.String("error", err.Error()))
		case !res.Skipped && res.ToBlock >= res.FromBlock:
			ix.logger.InfoContext(ctx, "indexer: pass complete",
				slog.Uint64("from_block", res.FromBlock),
				slog.Uint64("to_block", res.ToBlock),
				slog.Int("trades", res.Trades),
				slog.Int("opinions", res.Opinions),
				slog.Int("pools", res.Pools),
			)
		}
		if err == nil && !res.CaughtUp && !res.Skipped {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		select {
		case <-ctx.Done():
			ix.logger.Info("indexer: loop stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-ix.trigger:
			ix.logger.InfoContext(ctx, "indexer: manual trigger")
		}
	}
}

// missingOpinions lists ids the contract has issued beyond what the store
// holds. Opinion ids are issued sequentially from 1.
func (ix *Indexer) missingOpinions(ctx context.Context) ([]uint64, error) {
	next, err := ix.chain.NextOpinionID(ctx)
	if err != nil {
		return nil, fmt.Errorf("indexer: next opinion id: %w", err)
	}
	count, err := ix.opinions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("indexer: count opinions: %w", err)
	}
	var ids []uint64
	for id := uint64(count) + 1; id < next; id++ {
		ids = append(ids, id)
	}
	return ids, nil
}

func (ix *Indexer) refreshOpinions(ctx context.Context, ids []uint64, creations []domain.OpinionCreation) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	opinions := make([]domain.Opinion, len(ids))
	found := make([]bool, len(ids))
	counts := make([]int, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			o, err := ix.chain.GetOpinion(gctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("indexer: read opinion %d: %w", id, err)
			}
			opinions[i], found[i] = o, true

			n, err := ix.chain.TradeCount(gctx, id)
			if err != nil {
				ix.logger.WarnContext(gctx, "indexer: trade count unavailable",
					slog.Uint64("opinion_id", id),
					slog.String("error", err.Error()),
				)
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	created := make(map[uint64]time.Time, len(creations))
	for _, c := range creations {
		if !c.BlockTime.IsZero() {
			created[c.OpinionID] = c.BlockTime
		}
	}

	var (
		batch []domain.Opinion
		metas []domain.OpinionMeta
	)
	for i, id := range ids {
		if !found[i] {
			continue
		}
		batch = append(batch, opinions[i])
		meta := domain.OpinionMeta{ID: id, OnChainTrades: counts[i]}
		if t, ok := created[id]; ok {
			meta.CreatedAt = &t
		}
		metas = append(metas, meta)
	}

	if err := ix.opinions.UpsertBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("indexer: store opinions: %w", err)
	}
	if err := ix.opinions.UpsertMeta(ctx, metas); err != nil {
		return 0, fmt.Errorf("indexer: store opinion meta: %w", err)
	}
	return len(batch), nil
}

func (ix *Indexer) storePools(ctx context.Context, scan domain.ChainScan) error {
	for _, p := range scan.Pools {
		if err := ix.pools.Upsert(ctx, p); err != nil {
			return fmt.Errorf("indexer: store pool %d: %w", p.ID, err)
		}
	}
	if err := ix.pools.AddContributions(ctx, scan.Contributions); err != nil {
		return fmt.Errorf("indexer: store contributions: %w", err)
	}
	if err := ix.pools.MarkExecuted(ctx, scan.ExecutedPools); err != nil {
		return fmt.Errorf("indexer: mark executed: %w", err)
	}
	return nil
}

// announce invalidates cached views and publishes a refresh event. Both are
// best effort; the cache TTL covers a lost invalidation.
func (ix *Indexer) announce(ctx context.Context, ids []uint64, res IndexResult) {
	if ix.cache != nil {
		if err := ix.cache.Invalidate(ctx); err != nil {
			ix.logger.WarnContext(ctx, "indexer: invalidate cache", slog.String("error", err.Error()))
		}
	}
	if ix.bus == nil {
		return
	}
	payload, err := json.Marshal(domain.RefreshEvent{
		OpinionIDs: ids,
		FromBlock:  res.FromBlock,
		ToBlock:    res.ToBlock,
		At:         time.Now().UTC(),
	})
	if err != nil {
		ix.logger.WarnContext(ctx, "indexer: marshal refresh event", slog.String("error", err.Error()))
		return
	}
	if err := ix.bus.Publish(ctx, domain.ChannelOpinions, payload); err != nil {
		ix.logger.WarnContext(ctx, "indexer: publish refresh event", slog.String("error", err.Error()))
	}
}

// touchedOpinions returns the sorted ids named by any event in scan.
func touchedOpinions(scan domain.ChainScan) []uint64 {
	var ids []uint64
	for _, t := range scan.Trades {
		ids = append(ids, t.OpinionID)
	}
	for _, c := range scan.Creations {
		ids = append(ids, c.OpinionID)
	}
	return mergeIDs(ids, nil)
}

func mergeIDs(a, b []uint64) []uint64 {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}
