package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOpinions struct {
	byID      map[uint64]domain.Opinion
	activity  map[uint64]domain.OpinionActivity
	listErr   error
	getErr    error
	actErr    error
	listCalls []domain.ListOpts
}

func newFakeOpinions(os ...domain.Opinion) *fakeOpinions {
	f := &fakeOpinions{byID: map[uint64]domain.Opinion{}, activity: map[uint64]domain.OpinionActivity{}}
	for _, o := range os {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOpinions) Upsert(_ context.Context, o domain.Opinion) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOpinions) UpsertBatch(ctx context.Context, os []domain.Opinion) error {
	for _, o := range os {
		_ = f.Upsert(ctx, o)
	}
	return nil
}

func (f *fakeOpinions) GetByID(_ context.Context, id uint64) (domain.Opinion, error) {
	if f.getErr != nil {
		return domain.Opinion{}, f.getErr
	}
	o, ok := f.byID[id]
	if !ok {
		return domain.Opinion{}, domain.ErrNotFound
	}
	return o, nil
}

func (f *fakeOpinions) sorted() []domain.Opinion {
	out := make([]domain.Opinion, 0, len(f.byID))
	for _, o := range f.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeOpinions) List(_ context.Context, opts domain.ListOpts) ([]domain.Opinion, domain.PageInfo, error) {
	f.listCalls = append(f.listCalls, opts)
	if f.listErr != nil {
		return nil, domain.PageInfo{}, f.listErr
	}
	var all []domain.Opinion
	for _, o := range f.sorted() {
		if matchOpinion(o, opts.Filter) {
			all = append(all, o)
		}
	}
	if key, ok := fakeOrderKeys[opts.Order.Field]; ok {
		sort.SliceStable(all, func(i, j int) bool {
			if opts.Order.Desc {
				return key(all[i]) > key(all[j])
			}
			return key(all[i]) < key(all[j])
		})
	}
	total := len(all)
	if opts.Limit <= 0 {
		return all, domain.PageInfo{Page: 1, PageSize: total, TotalCount: total, PageCount: 1}, nil
	}
	lo := min(opts.Offset, total)
	hi := min(lo+opts.Limit, total)
	return all[lo:hi], domain.PageInfo{
		Page:       opts.Offset/opts.Limit + 1,
		PageSize:   opts.Limit,
		TotalCount: total,
		PageCount:  (total + opts.Limit - 1) / opts.Limit,
	}, nil
}

var fakeOrderKeys = map[domain.OrderField]func(domain.Opinion) float64{
	domain.OrderID:        func(o domain.Opinion) float64 { return float64(o.ID) },
	domain.OrderVolume:    func(o domain.Opinion) float64 { return o.TotalVolume },
	domain.OrderNextPrice: func(o domain.Opinion) float64 { return o.NextPrice },
	domain.OrderLastPrice: func(o domain.Opinion) float64 { return o.LastPrice },
	domain.OrderChange:    func(o domain.Opinion) float64 { return o.PriceChange() },
}

// matchOpinion mirrors the store filter without the trending stage.
func matchOpinion(o domain.Opinion, f domain.OpinionFilter) bool {
	text := strings.ToLower(o.Question + " " + o.CurrentAnswer)
	for _, t := range f.Tokens {
		if !strings.Contains(text, t) {
			return false
		}
	}
	if f.ExcludeAdult && o.IsAdult() {
		return false
	}
	if f.Category != "" && f.Category != domain.CategoryAll && !o.HasCategory(f.Category) {
		return false
	}
	return true
}

func (f *fakeOpinions) Count(context.Context) (int64, error) { return int64(len(f.byID)), nil }

func (f *fakeOpinions) UpsertMeta(context.Context, []domain.OpinionMeta) error { return nil }

func (f *fakeOpinions) Activity(_ context.Context, ids []uint64, _ time.Time) (map[uint64]domain.OpinionActivity, error) {
	if f.actErr != nil {
		return nil, f.actErr
	}
	out := map[uint64]domain.OpinionActivity{}
	for _, id := range ids {
		if a, ok := f.activity[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type fakeEvents struct {
	events []domain.TradeEvent
	err    error
}

func (f *fakeEvents) InsertBatch(context.Context, []domain.TradeEvent) error { return nil }
func (f *fakeEvents) LastBlock(context.Context) (uint64, error)              { return 0, nil }
func (f *fakeEvents) SetLastBlock(context.Context, uint64) error             { return nil }
func (f *fakeEvents) ListByOpinion(_ context.Context, id uint64) ([]domain.TradeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.TradeEvent
	for _, e := range f.events {
		if e.OpinionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
func (f *fakeEvents) ListAll(context.Context) ([]domain.TradeEvent, error) {
	return f.events, f.err
}
func (f *fakeEvents) ListRange(context.Context, uint64, uint64) ([]domain.TradeEvent, error) {
	return nil, nil
}
func (f *fakeEvents) DeleteBefore(context.Context, uint64) (int64, error) { return 0, nil }

type fakeCache struct {
	views []domain.OpinionView
	hit   bool
	sets  int
}

func (f *fakeCache) SetViews(_ context.Context, v []domain.OpinionView) error {
	f.views, f.hit = v, true
	f.sets++
	return nil
}
func (f *fakeCache) GetViews(context.Context) ([]domain.OpinionView, error) {
	if !f.hit {
		return nil, domain.ErrNotFound
	}
	return f.views, nil
}
func (f *fakeCache) Invalidate(context.Context) error {
	f.hit = false
	return nil
}

type fakeStats struct {
	stats domain.UserStats
	err   error
}

func (f fakeStats) Stats(context.Context, string) (domain.UserStats, error) {
	return f.stats, f.err
}

type fakePools struct{ pools map[uint64]domain.Pool }

func (f fakePools) Upsert(context.Context, domain.Pool) error                         { return nil }
func (f fakePools) AddContributions(context.Context, []domain.PoolContribution) error { return nil }
func (f fakePools) MarkExecuted(context.Context, []uint64) error                      { return nil }
func (f fakePools) GetByID(_ context.Context, id uint64) (domain.Pool, error) {
	p, ok := f.pools[id]
	if !ok {
		return domain.Pool{}, domain.ErrNotFound
	}
	return p, nil
}
func (f fakePools) ListByOpinion(_ context.Context, opinionID uint64) ([]domain.Pool, error) {
	var out []domain.Pool
	for _, p := range f.pools {
		if p.OpinionID == opinionID {
			out = append(out, p)
		}
	}
	return out, nil
}
