package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/pool"
)

// PoolService plans pool completion.
type PoolService struct {
	pools domain.PoolStore
	now   func() time.Time
}

// NewPoolService creates a PoolService.
func NewPoolService(pools domain.PoolStore) *PoolService {
	return &PoolService{pools: pools, now: time.Now}
}

// Plan loads the pool and returns its completion plan.
func (s *PoolService) Plan(ctx context.Context, id uint64) (pool.Plan, error) {
	if id == 0 {
		return pool.Plan{}, fmt.Errorf("pool_service: id 0: %w", domain.ErrInvalidInput)
	}
	p, err := s.pools.GetByID(ctx, id)
	if err != nil {
		return pool.Plan{}, fmt.Errorf("pool_service: get %d: %w", id, err)
	}
	return pool.PlanCompletion(p, s.now())
}

// ByOpinion lists the pools of one opinion.
func (s *PoolService) ByOpinion(ctx context.Context, opinionID uint64) ([]domain.Pool, error) {
	if opinionID == 0 {
		return nil, fmt.Errorf("pool_service: opinion id 0: %w", domain.ErrInvalidInput)
	}
	pools, err := s.pools.ListByOpinion(ctx, opinionID)
	if err != nil {
		return nil, fmt.Errorf("pool_service: list for opinion %d: %w", opinionID, err)
	}
	return pools, nil
}
