package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/market"
)

func opinionFixture() *fakeOpinions {
	return newFakeOpinions(
		domain.Opinion{ID: 1, Question: "Greatest soccer goat?", CurrentAnswer: "Messi", NextPrice: 4, TotalVolume: 300, Categories: []string{"Sports"}},
		domain.Opinion{ID: 2, Question: "Best pizza city?", CurrentAnswer: "Naples", NextPrice: 9, TotalVolume: 50, Categories: []string{"Food"}},
		domain.Opinion{ID: 3, Question: "Most overrated film?", CurrentAnswer: "Avatar", NextPrice: 2, TotalVolume: 10, Categories: []string{"Adult"}},
	)
}

func TestOpinionService_ListCachesViews(t *testing.T) {
	ctx := context.Background()
	store := opinionFixture()
	cache := &fakeCache{}
	svc := NewOpinionService(store, cache, market.DefaultThresholds(), 0, quietLogger())

	res, err := svc.List(ctx, market.Query{})
	require.NoError(t, err)
	// Adult opinions stay hidden without verification; default sort is
	// market cap descending.
	require.Len(t, res.Items, 2)
	assert.Equal(t, uint64(1), res.Items[0].ID)
	assert.Equal(t, 1, cache.sets)
	assert.False(t, res.Page.Upstream)

	// A second listing is served from the cache.
	store.listErr = errBoom
	res, err = svc.List(ctx, market.Query{Filter: market.Filter{Search: "goat soccer"}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, uint64(1), res.Items[0].ID)
}

func TestOpinionService_ServerPagination(t *testing.T) {
	store := opinionFixture()
	svc := NewOpinionService(store, &fakeCache{}, market.DefaultThresholds(), 2, quietLogger())

	res, err := svc.List(context.Background(), market.Query{Page: 2, PageSize: 2, Filter: market.Filter{AdultVerified: true}})
	require.NoError(t, err)

	require.Len(t, store.listCalls, 1)
	assert.Equal(t, domain.ListOpts{
		Limit:  2,
		Offset: 2,
		Filter: domain.OpinionFilter{},
		Order:  domain.OpinionOrder{Field: domain.OrderVolume, Desc: true},
	}, store.listCalls[0])
	require.Len(t, res.Items, 1)
	assert.Equal(t, uint64(3), res.Items[0].ID)
	assert.True(t, res.Page.Upstream)
	assert.Equal(t, 3, res.Page.TotalCount)
}

func TestOpinionService_ServerPaginationFiltersAndSortsInStore(t *testing.T) {
	ctx := context.Background()
	store := newFakeOpinions(
		domain.Opinion{ID: 1, Question: "Best pizza?", CurrentAnswer: "Naples", TotalVolume: 5, Categories: []string{"Food"}},
		domain.Opinion{ID: 2, Question: "Best pasta?", CurrentAnswer: "Carbonara", TotalVolume: 6, Categories: []string{"Food"}},
		domain.Opinion{ID: 3, Question: "Greatest soccer goat?", CurrentAnswer: "Messi", TotalVolume: 500, Categories: []string{"Sports"}},
		domain.Opinion{ID: 4, Question: "Best tennis player?", CurrentAnswer: "Federer", TotalVolume: 40, Categories: []string{"Sports"}},
	)
	svc := NewOpinionService(store, nil, market.DefaultThresholds(), 2, quietLogger())

	res, err := svc.List(ctx, market.Query{PageSize: 2, Filter: market.Filter{Search: "goat soccer"}})
	require.NoError(t, err)
	require.True(t, res.Page.Upstream)
	assert.Equal(t, []uint64{3}, viewIDs(res.Items))
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Page.TotalCount)

	res, err = svc.List(ctx, market.Query{PageSize: 2, Sort: market.Sort{Field: market.SortVolume, Direction: market.Desc}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, viewIDs(res.Items))
	assert.Equal(t, 4, res.Page.TotalCount)
	assert.Equal(t, 2, res.Page.TotalPages)

	res, err = svc.List(ctx, market.Query{Page: 2, PageSize: 2, Filter: market.Filter{Category: "Food"}, Sort: market.Sort{Field: market.SortVolume, Direction: market.Asc}})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 2, res.Matched)
}

func TestOpinionService_DerivedQueriesStayInMemory(t *testing.T) {
	store := opinionFixture()
	svc := NewOpinionService(store, nil, market.DefaultThresholds(), 2, quietLogger())

	res, err := svc.List(context.Background(), market.Query{Sort: market.Sort{Field: market.SortTrades, Direction: market.Desc}})
	require.NoError(t, err)
	assert.False(t, res.Page.Upstream)
	require.Len(t, store.listCalls, 1)
	assert.Zero(t, store.listCalls[0].Limit)
	assert.Len(t, res.Items, 2)
}

func TestOpinionService_RejectsOutOfRangePage(t *testing.T) {
	svc := NewOpinionService(opinionFixture(), nil, market.DefaultThresholds(), 2, quietLogger())
	_, err := svc.List(context.Background(), market.Query{Page: market.MaxPage + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func viewIDs(views []domain.OpinionView) []uint64 {
	out := make([]uint64, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}

func TestOpinionService_Get(t *testing.T) {
	ctx := context.Background()
	store := opinionFixture()
	created := time.Now().Add(-2 * time.Hour)
	store.activity[1] = domain.OpinionActivity{OpinionID: 1, CreatedAt: &created, OnChainTrades: 7}
	svc := NewOpinionService(store, nil, market.DefaultThresholds(), 0, quietLogger())

	v, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, v.TradeCount.Value)
	assert.Equal(t, domain.ProvenanceObserved, v.CreatedAt.Provenance)
	assert.Equal(t, domain.MarketStatusNew, v.Status)

	_, err = svc.Get(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpinionService_ActivityFailureDegrades(t *testing.T) {
	store := opinionFixture()
	store.actErr = errBoom
	svc := NewOpinionService(store, nil, market.DefaultThresholds(), 0, quietLogger())

	v, err := svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.ProvenanceEstimated, v.TradeCount.Provenance)
	assert.Equal(t, domain.ProvenanceNone, v.CreatedAt.Provenance)
}
