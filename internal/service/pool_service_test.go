package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/pool"
)

func TestPoolService_Plan(t *testing.T) {
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	svc := NewPoolService(fakePools{pools: map[uint64]domain.Pool{
		1: {ID: 1, OpinionID: 4, TargetPrice: 10, TotalAmount: 4, Deadline: now.Add(time.Hour), Status: domain.PoolStatusActive},
		2: {ID: 2, OpinionID: 4, TargetPrice: 10, TotalAmount: 12, Deadline: now.Add(time.Hour), Status: domain.PoolStatusActive},
	}})
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	plan, err := svc.Plan(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, pool.ActionContribute, plan.Action)
	assert.Equal(t, 6.0, plan.Amount)

	plan, err = svc.Plan(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, pool.ActionExecute, plan.Action)
	assert.True(t, plan.Redirected)

	_, err = svc.Plan(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Plan(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pools, err := svc.ByOpinion(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, pools, 2)
}
