package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/market"
)

// DefaultServerPageThreshold is the opinion count above which listings are
// paginated by the store instead of in memory.
const DefaultServerPageThreshold = 5_000

// OpinionService builds decorated opinion listings.
type OpinionService struct {
	opinions  domain.OpinionStore
	cache     domain.OpinionCache
	th        market.Thresholds
	threshold int
	now       func() time.Time
	logger    *slog.Logger
}

// NewOpinionService creates an OpinionService. cache may be nil.
// serverPageThreshold <= 0 selects DefaultServerPageThreshold.
func NewOpinionService(
	opinions domain.OpinionStore,
	cache domain.OpinionCache,
	th market.Thresholds,
	serverPageThreshold int,
	logger *slog.Logger,
) *OpinionService {
	if serverPageThreshold <= 0 {
		serverPageThreshold = DefaultServerPageThreshold
	}
	return &OpinionService{
		opinions:  opinions,
		cache:     cache,
		th:        th,
		threshold: serverPageThreshold,
		now:       time.Now,
		logger:    logger,
	}
}

// List filters, sorts and paginates the decorated opinions.
func (s *OpinionService) List(ctx context.Context, q market.Query) (market.Result, error) {
	views, upstream, err := s.load(ctx, q)
	if err != nil {
		return market.Result{}, err
	}
	q.Upstream = upstream
	return market.Run(views, q, s.th), nil
}

// Get returns one decorated opinion.
func (s *OpinionService) Get(ctx context.Context, id uint64) (domain.OpinionView, error) {
	if id == 0 {
		return domain.OpinionView{}, fmt.Errorf("opinion_service: id 0: %w", domain.ErrInvalidInput)
	}
	if views, ok := s.cached(ctx); ok {
		for _, v := range views {
			if v.ID == id {
				return v, nil
			}
		}
	}

	o, err := s.opinions.GetByID(ctx, id)
	if err != nil {
		return domain.OpinionView{}, fmt.Errorf("opinion_service: get %d: %w", id, err)
	}
	views, err := s.decorate(ctx, []domain.Opinion{o})
	if err != nil {
		return domain.OpinionView{}, err
	}
	return views[0], nil
}

// Views returns every decorated opinion, cache first.
func (s *OpinionService) Views(ctx context.Context) ([]domain.OpinionView, error) {
	if views, ok := s.cached(ctx); ok {
		return views, nil
	}
	opinions, _, err := s.opinions.List(ctx, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("opinion_service: list: %w", err)
	}
	views, err := s.decorate(ctx, opinions)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetViews(ctx, views); err != nil {
			s.logger.WarnContext(ctx, "opinion_service: cache set failed", slog.String("error", err.Error()))
		}
	}
	return views, nil
}

// load picks in-memory or store pagination depending on the opinion count.
// Store pagination needs the filter and order pushed down, so queries on
// derived fields (quality score, trade count) stay in memory.
func (s *OpinionService) load(ctx context.Context, q market.Query) ([]domain.OpinionView, *domain.PageInfo, error) {
	if views, ok := s.cached(ctx); ok {
		return views, nil, nil
	}

	total, err := s.opinions.Count(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("opinion_service: count: %w", err)
	}
	opts, pushable := s.storeOpts(q)
	if int(total) <= s.threshold || !pushable {
		views, err := s.Views(ctx)
		return views, nil, err
	}

	size := q.PageSize
	if size <= 0 {
		size = market.DefaultPageSize
	}
	page := max(q.Page, 1)
	if page > market.MaxPage || size > market.MaxPageSize {
		return nil, nil, fmt.Errorf("opinion_service: page %d size %d: %w", page, size, domain.ErrInvalidInput)
	}
	opts.Limit, opts.Offset = size, (page-1)*size

	opinions, info, err := s.opinions.List(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opinion_service: list page %d: %w", page, err)
	}
	views, err := s.decorate(ctx, opinions)
	if err != nil {
		return nil, nil, err
	}
	return views, &info, nil
}

var storeOrder = map[market.SortField]domain.OrderField{
	market.SortID:        domain.OrderID,
	market.SortMarketCap: domain.OrderVolume,
	market.SortVolume:    domain.OrderVolume,
	market.SortNextPrice: domain.OrderNextPrice,
	market.SortLastPrice: domain.OrderLastPrice,
	market.SortChange:    domain.OrderChange,
}

// storeOpts translates q into store filter and order. It reports false when
// some stage can only run on decorated views.
func (s *OpinionService) storeOpts(q market.Query) (domain.ListOpts, bool) {
	if q.Filter.MinQuality > 0 {
		return domain.ListOpts{}, false
	}
	sort := q.Sort
	if sort.Field == "" {
		sort = market.DefaultSort()
	}
	field, ok := storeOrder[sort.Field]
	if !ok {
		return domain.ListOpts{}, false
	}

	opts := domain.ListOpts{
		Filter: domain.OpinionFilter{
			Tokens:       market.Tokens(q.Filter.Search),
			Category:     q.Filter.Category,
			ExcludeAdult: !q.Filter.AdultVerified,
		},
		Order: domain.OpinionOrder{Field: field, Desc: sort.Direction != market.Asc},
	}
	if q.Filter.Tab == market.TabTrending {
		now := s.now()
		opts.Filter.Trending = &domain.TrendingFilter{
			MinVolume: s.th.TrendingVolume,
			HotVolume: s.th.HotVolume,
			HotSince:  now.Add(-s.th.HotWindow),
			NewSince:  now.Add(-s.th.NewWindow),
		}
	}
	return opts, true
}

func (s *OpinionService) cached(ctx context.Context) ([]domain.OpinionView, bool) {
	if s.cache == nil {
		return nil, false
	}
	views, err := s.cache.GetViews(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "opinion_service: cache get failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return views, true
}

// decorate joins indexed activity onto opinions. Missing activity only
// lowers provenance; it never fails the listing.
func (s *OpinionService) decorate(ctx context.Context, opinions []domain.Opinion) ([]domain.OpinionView, error) {
	now := s.now()
	ids := make([]uint64, len(opinions))
	for i, o := range opinions {
		ids[i] = o.ID
	}
	activity, err := s.opinions.Activity(ctx, ids, now)
	if err != nil {
		s.logger.WarnContext(ctx, "opinion_service: activity unavailable", slog.String("error", err.Error()))
		activity = nil
	}
	return market.DecorateAll(opinions, activity, now, s.th), nil
}
