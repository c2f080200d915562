package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeChain struct {
	mu       sync.Mutex
	head     uint64
	next     uint64
	opinions map[uint64]domain.Opinion
	counts   map[uint64]int
	scan     domain.ChainScan
	scans    [][2]uint64
	reads    []uint64
}

func (f *fakeChain) NextOpinionID(context.Context) (uint64, error) { return f.next, nil }

func (f *fakeChain) GetOpinion(_ context.Context, id uint64) (domain.Opinion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, id)
	o, ok := f.opinions[id]
	if !ok {
		return domain.Opinion{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeChain) TradeCount(_ context.Context, id uint64) (int, error) {
	return f.counts[id], nil
}

func (f *fakeChain) LatestBlock(context.Context) (uint64, error) { return f.head, nil }

func (f *fakeChain) Scan(_ context.Context, from, to *uint64) (domain.ChainScan, error) {
	f.scans = append(f.scans, [2]uint64{*from, *to})
	s := f.scan
	s.FromBlock, s.ToBlock = *from, *to
	return s, nil
}

type memOpinions struct {
	byID  map[uint64]domain.Opinion
	metas map[uint64]domain.OpinionMeta
}

func newMemOpinions() *memOpinions {
	return &memOpinions{byID: map[uint64]domain.Opinion{}, metas: map[uint64]domain.OpinionMeta{}}
}

func (m *memOpinions) Upsert(_ context.Context, o domain.Opinion) error {
	m.byID[o.ID] = o
	return nil
}

func (m *memOpinions) UpsertBatch(ctx context.Context, os []domain.Opinion) error {
	for _, o := range os {
		_ = m.Upsert(ctx, o)
	}
	return nil
}

func (m *memOpinions) GetByID(_ context.Context, id uint64) (domain.Opinion, error) {
	o, ok := m.byID[id]
	if !ok {
		return domain.Opinion{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOpinions) List(context.Context, domain.ListOpts) ([]domain.Opinion, domain.PageInfo, error) {
	return nil, domain.PageInfo{}, nil
}

func (m *memOpinions) Count(context.Context) (int64, error) { return int64(len(m.byID)), nil }

func (m *memOpinions) UpsertMeta(_ context.Context, metas []domain.OpinionMeta) error {
	for _, meta := range metas {
		m.metas[meta.ID] = meta
	}
	return nil
}

func (m *memOpinions) Activity(context.Context, []uint64, time.Time) (map[uint64]domain.OpinionActivity, error) {
	return nil, nil
}

type memEvents struct {
	last   uint64
	events []domain.TradeEvent
}

func (m *memEvents) InsertBatch(_ context.Context, es []domain.TradeEvent) error {
	m.events = append(m.events, es...)
	return nil
}
func (m *memEvents) LastBlock(context.Context) (uint64, error) { return m.last, nil }
func (m *memEvents) SetLastBlock(_ context.Context, b uint64) error {
	m.last = max(m.last, b)
	return nil
}
func (m *memEvents) ListByOpinion(context.Context, uint64) ([]domain.TradeEvent, error) {
	return nil, nil
}
func (m *memEvents) ListAll(context.Context) ([]domain.TradeEvent, error) { return m.events, nil }
func (m *memEvents) ListRange(context.Context, uint64, uint64) ([]domain.TradeEvent, error) {
	return nil, nil
}
func (m *memEvents) DeleteBefore(context.Context, uint64) (int64, error) { return 0, nil }

type memPools struct {
	pools    map[uint64]domain.Pool
	contribs []domain.PoolContribution
	executed []uint64
}

func newMemPools() *memPools { return &memPools{pools: map[uint64]domain.Pool{}} }

func (m *memPools) Upsert(_ context.Context, p domain.Pool) error {
	m.pools[p.ID] = p
	return nil
}
func (m *memPools) AddContributions(_ context.Context, cs []domain.PoolContribution) error {
	m.contribs = append(m.contribs, cs...)
	return nil
}
func (m *memPools) MarkExecuted(_ context.Context, ids []uint64) error {
	m.executed = append(m.executed, ids...)
	return nil
}
func (m *memPools) GetByID(_ context.Context, id uint64) (domain.Pool, error) {
	p, ok := m.pools[id]
	if !ok {
		return domain.Pool{}, domain.ErrNotFound
	}
	return p, nil
}
func (m *memPools) ListByOpinion(context.Context, uint64) ([]domain.Pool, error) { return nil, nil }

type fakeCache struct{ invalidations int }

func (f *fakeCache) SetViews(context.Context, []domain.OpinionView) error { return nil }
func (f *fakeCache) GetViews(context.Context) ([]domain.OpinionView, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidations++
	return nil
}

type fakeBus struct{ published [][]byte }

func (f *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	f.published = append(f.published, payload)
	return nil
}
func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }

type fakeLocks struct {
	held     bool
	acquires atomic.Int32
}

func (f *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	f.acquires.Add(1)
	if f.held {
		return nil, domain.ErrLockHeld
	}
	return func() {}, nil
}
