package pool

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

func TestPlanCompletion(t *testing.T) {
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	base := domain.Pool{
		ID:          9,
		OpinionID:   3,
		TargetPrice: 100,
		TotalAmount: 60,
		Deadline:    now.Add(24 * time.Hour),
		Status:      domain.PoolStatusActive,
	}

	tests := []struct {
		name       string
		mutate     func(*domain.Pool)
		action     Action
		amount     float64
		redirected bool
	}{
		{name: "needs contribution", mutate: func(*domain.Pool) {}, action: ActionContribute, amount: 40},
		{name: "exactly funded", mutate: func(p *domain.Pool) { p.TotalAmount = 100 }, action: ActionExecute, redirected: true},
		{name: "over funded", mutate: func(p *domain.Pool) { p.TotalAmount = 130 }, action: ActionExecute, redirected: true},
		{name: "deadline passed", mutate: func(p *domain.Pool) { p.Deadline = now.Add(-time.Minute) }, action: ActionRefund, amount: 60},
		{name: "expired status", mutate: func(p *domain.Pool) { p.Status = domain.PoolStatusExpired }, action: ActionRefund, amount: 60},
		{name: "executed", mutate: func(p *domain.Pool) { p.Status = domain.PoolStatusExecuted }, action: ActionNone},
		{name: "no deadline", mutate: func(p *domain.Pool) { p.Deadline = time.Time{} }, action: ActionContribute, amount: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			plan, err := PlanCompletion(p, now)
			require.NoError(t, err)
			assert.Equal(t, tt.action, plan.Action)
			assert.Equal(t, tt.amount, plan.Amount)
			assert.Equal(t, tt.redirected, plan.Redirected)
		})
	}
}

func TestPlanCompletion_InvalidInput(t *testing.T) {
	now := time.Now()
	_, err := PlanCompletion(domain.Pool{}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = PlanCompletion(domain.Pool{ID: 1, TargetPrice: math.NaN()}, now)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
