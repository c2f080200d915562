package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/market"
	"github.com/alanyoungcy/opinionmarketcap/internal/pool"
	"github.com/alanyoungcy/opinionmarketcap/internal/prefs"
	"github.com/alanyoungcy/opinionmarketcap/internal/service"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOpinions struct {
	lastQuery market.Query
	views     map[uint64]domain.OpinionView
}

func (f *fakeOpinions) List(_ context.Context, q market.Query) (market.Result, error) {
	f.lastQuery = q
	return market.Result{Page: market.Page{Number: q.Page, Size: q.PageSize}}, nil
}

func (f *fakeOpinions) Get(_ context.Context, id uint64) (domain.OpinionView, error) {
	v, ok := f.views[id]
	if !ok {
		return domain.OpinionView{}, domain.ErrNotFound
	}
	return v, nil
}

type fakeUsers struct {
	action  service.OnboardingAction
	watched map[uint64]bool
}

func (f *fakeUsers) Onboarding(context.Context, string) (prefs.OnboardingState, error) {
	return prefs.OnboardingState{}, nil
}

func (f *fakeUsers) UpdateOnboarding(_ context.Context, _ string, a service.OnboardingAction) (prefs.OnboardingState, error) {
	f.action = a
	return prefs.OnboardingState{}, nil
}

func (f *fakeUsers) RecordShare(context.Context, string) (int, error) { return 3, nil }

func (f *fakeUsers) Watchlist(context.Context, string) ([]uint64, error) { return nil, nil }

func (f *fakeUsers) Watch(_ context.Context, _ string, id uint64, follow bool) ([]uint64, error) {
	if f.watched == nil {
		f.watched = map[uint64]bool{}
	}
	f.watched[id] = follow
	var ids []uint64
	for k, v := range f.watched {
		if v {
			ids = append(ids, k)
		}
	}
	return ids, nil
}

type fakeBadges struct {
	seen []string
}

func (f *fakeBadges) Profile(context.Context, string) (service.BadgeProfile, error) {
	return service.BadgeProfile{TotalXP: 100, Level: domain.Level{Level: 2}}, nil
}

func (f *fakeBadges) MarkSeen(_ context.Context, _ string, ids []string) error {
	f.seen = ids
	return nil
}

type fakePools struct{}

func (fakePools) Plan(_ context.Context, id uint64) (pool.Plan, error) {
	if id != 7 {
		return pool.Plan{}, domain.ErrNotFound
	}
	return pool.Plan{}, nil
}

func (fakePools) ByOpinion(context.Context, uint64) ([]domain.Pool, error) { return nil, nil }

func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestListOpinions_ParsesQuery(t *testing.T) {
	svc := &fakeOpinions{}
	h := NewOpinionHandler(svc, quietLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/opinions?q=btc&category=Crypto&tab=trending&adult=true&minQuality=10&sort=volume&dir=asc&page=2&pageSize=500", nil)
	rec := serve("GET /api/opinions", h.ListOpinions, req)

	require.Equal(t, http.StatusOK, rec.Code)
	q := svc.lastQuery
	assert.Equal(t, "btc", q.Filter.Search)
	assert.Equal(t, "Crypto", q.Filter.Category)
	assert.Equal(t, market.TabTrending, q.Filter.Tab)
	assert.True(t, q.Filter.AdultVerified)
	assert.InDelta(t, 10, q.Filter.MinQuality, 1e-9)
	assert.Equal(t, market.SortVolume, q.Sort.Field)
	assert.Equal(t, market.Asc, q.Sort.Direction)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, market.MaxPageSize, q.PageSize)
}

func TestListOpinions_BadInput(t *testing.T) {
	h := NewOpinionHandler(&fakeOpinions{}, quietLogger())
	for _, raw := range []string{
		"tab=hot", "sort=colour", "dir=up", "page=x", "minQuality=lots",
		"minQuality=NaN", "minQuality=-Inf", "page=922337203685477580", "page=1000001",
	} {
		t.Run(raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/opinions?"+raw, nil)
			rec := serve("GET /api/opinions", h.ListOpinions, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetOpinion(t *testing.T) {
	view := domain.OpinionView{Opinion: domain.Opinion{ID: 4, Question: "q"}}
	h := NewOpinionHandler(&fakeOpinions{views: map[uint64]domain.OpinionView{4: view}}, quietLogger())

	tests := []struct {
		path string
		want int
	}{
		{"/api/opinions/4", http.StatusOK},
		{"/api/opinions/5", http.StatusNotFound},
		{"/api/opinions/0", http.StatusBadRequest},
		{"/api/opinions/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve("GET /api/opinions/{id}", h.GetOpinion, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUserHandler_MarkSeenAndOnboarding(t *testing.T) {
	badges := &fakeBadges{}
	users := &fakeUsers{}
	h := NewUserHandler(badges, users, quietLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/users/0xabc/badges/seen",
		strings.NewReader(`{"badgeIds":["first_trade"]}`))
	rec := serve("POST /api/users/{address}/badges/seen", h.MarkBadgesSeen, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"first_trade"}, badges.seen)

	req = httptest.NewRequest(http.MethodPost, "/api/users/0xabc/badges/seen", strings.NewReader(`{"nope":1}`))
	rec = serve("POST /api/users/{address}/badges/seen", h.MarkBadgesSeen, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/users/0xabc/onboarding", strings.NewReader(`{"action":"complete"}`))
	rec = serve("POST /api/users/{address}/onboarding", h.UpdateOnboarding, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.OnboardingComplete, users.action)
}

func TestUserHandler_Watchlist(t *testing.T) {
	users := &fakeUsers{}
	h := NewUserHandler(&fakeBadges{}, users, quietLogger())

	rec := serve("GET /api/users/{address}/watchlist", h.Watchlist,
		httptest.NewRequest(http.MethodGet, "/api/users/0xabc/watchlist", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"opinionIds":[]}`, rec.Body.String())

	rec = serve("POST /api/users/{address}/watchlist/{id}", h.Watch,
		httptest.NewRequest(http.MethodPost, "/api/users/0xabc/watchlist/9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"opinionIds":[9]}`, rec.Body.String())

	rec = serve("DELETE /api/users/{address}/watchlist/{id}", h.Unwatch,
		httptest.NewRequest(http.MethodDelete, "/api/users/0xabc/watchlist/9", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"opinionIds":[]}`, rec.Body.String())
}

func TestPoolHandler_Plan(t *testing.T) {
	h := NewPoolHandler(fakePools{}, quietLogger())

	rec := serve("GET /api/pools/{id}/plan", h.Plan, httptest.NewRequest(http.MethodGet, "/api/pools/7/plan", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve("GET /api/pools/{id}/plan", h.Plan, httptest.NewRequest(http.MethodGet, "/api/pools/8/plan", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	bad := PingFunc(func(context.Context) error { return domain.ErrDataUnavailable })

	h := NewHealthHandler(map[string]Pinger{"postgres": ok}, quietLogger())
	rec := serve("GET /api/health", h.HealthCheck, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": bad}, quietLogger())
	rec = serve("GET /api/health", h.HealthCheck, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "error", body.Checks["redis"])
}

func TestIndexerTrigger(t *testing.T) {
	rec := serve("POST /api/indexer/trigger", NewIndexerHandler(nil, quietLogger()).Trigger,
		httptest.NewRequest(http.MethodPost, "/api/indexer/trigger", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ch := make(chan struct{}, 1)
	h := NewIndexerHandler(ch, quietLogger())
	for range 3 {
		rec = serve("POST /api/indexer/trigger", h.Trigger, httptest.NewRequest(http.MethodPost, "/api/indexer/trigger", nil))
		assert.Equal(t, http.StatusAccepted, rec.Code)
	}
	assert.Len(t, ch, 1)
}
