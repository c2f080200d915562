package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

type indexerFixture struct {
	chain    *fakeChain
	opinions *memOpinions
	events   *memEvents
	pools    *memPools
	cache    *fakeCache
	bus      *fakeBus
	locks    *fakeLocks
	ix       *Indexer
}

func newIndexerFixture(opts IndexerOptions) *indexerFixture {
	created := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)
	f := &indexerFixture{
		chain: &fakeChain{
			head: 1_000,
			next: 3,
			opinions: map[uint64]domain.Opinion{
				1: {ID: 1, Question: "Best goat?", NextPrice: 2},
				2: {ID: 2, Question: "Best city?", NextPrice: 3},
			},
			counts: map[uint64]int{1: 4, 2: 1},
			scan: domain.ChainScan{
				Trades: []domain.TradeEvent{
					{OpinionID: 2, Kind: domain.TradeKindBuy, Amount: 2, BlockNumber: 120},
				},
				Creations: []domain.OpinionCreation{
					{OpinionID: 2, Creator: "0xabc", BlockNumber: 110, BlockTime: created},
				},
				Pools:         []domain.Pool{{ID: 7, OpinionID: 2, TargetPrice: 5}},
				Contributions: []domain.PoolContribution{{PoolID: 7, Amount: 1}},
				ExecutedPools: []uint64{6},
			},
		},
		opinions: newMemOpinions(),
		events:   &memEvents{},
		pools:    newMemPools(),
		cache:    &fakeCache{},
		bus:      &fakeBus{},
		locks:    &fakeLocks{},
	}
	f.ix = NewIndexer(f.chain, f.opinions, f.events, f.pools, f.cache, f.bus, f.locks, opts, quietLogger())
	return f
}

func TestIndexerFirstPassBackfills(t *testing.T) {
	f := newIndexerFixture(IndexerOptions{StartBlock: 100})

	res, err := f.ix.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][2]uint64{{100, 1_000}}, f.chain.scans)
	assert.True(t, res.CaughtUp)
	assert.Equal(t, 1, res.Trades)
	assert.Equal(t, 2, res.Opinions)

	assert.Len(t, f.opinions.byID, 2)
	assert.Equal(t, 4, f.opinions.metas[1].OnChainTrades)
	require.NotNil(t, f.opinions.metas[2].CreatedAt)
	assert.Nil(t, f.opinions.metas[1].CreatedAt)

	assert.Len(t, f.events.events, 1)
	assert.Equal(t, uint64(1_000), f.events.last)

	assert.Contains(t, f.pools.pools, uint64(7))
	assert.Len(t, f.pools.contribs, 1)
	assert.Equal(t, []uint64{6}, f.pools.executed)

	assert.Equal(t, 1, f.cache.invalidations)
	require.Len(t, f.bus.published, 1)
	var ev domain.RefreshEvent
	require.NoError(t, json.Unmarshal(f.bus.published[0], &ev))
	assert.Equal(t, []uint64{1, 2}, ev.OpinionIDs)
	assert.Equal(t, uint64(1_000), ev.ToBlock)
}

func TestIndexerResumesFromCursorAndCapsSpan(t *testing.T) {
	f := newIndexerFixture(IndexerOptions{StartBlock: 100, MaxBlocks: 200})
	f.events.last = 500

	res, err := f.ix.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, [][2]uint64{{501, 700}}, f.chain.scans)
	assert.False(t, res.CaughtUp)
	assert.Equal(t, uint64(700), f.events.last)
	// Only opinions named by events are re-read after the first pass.
	assert.Equal(t, []uint64{2}, f.chain.reads)
}

func TestIndexerCaughtUp(t *testing.T) {
	f := newIndexerFixture(IndexerOptions{})
	f.events.last = 1_000

	res, err := f.ix.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.CaughtUp)
	assert.Empty(t, f.chain.scans)
	assert.Empty(t, f.bus.published)
}

func TestIndexerSkipsWhenLockHeld(t *testing.T) {
	f := newIndexerFixture(IndexerOptions{})
	f.locks.held = true

	res, err := f.ix.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, f.chain.scans)
}

func TestIndexerSkipsVanishedOpinion(t *testing.T) {
	f := newIndexerFixture(IndexerOptions{})
	f.chain.next = 4

	res, err := f.ix.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Opinions)
	assert.NotContains(t, f.opinions.byID, uint64(3))
}

func TestMergeIDs(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 5}, mergeIDs([]uint64{5, 1}, []uint64{2, 5, 1}))
	assert.Empty(t, mergeIDs(nil, nil))
}

func TestIndexerTriggerWakesLoop(t *testing.T) {
	f := newIndexerFixture(IndexerOptions{})
	f.events.last = 1_000

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.ix.RunLoop(ctx, time.Hour) }()

	require.Eventually(t, func() bool { return f.locks.acquires.Load() == 1 }, time.Second, 5*time.Millisecond)

	f.ix.Trigger() <- struct{}{}
	require.Eventually(t, func() bool { return f.locks.acquires.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
