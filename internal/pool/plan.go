// Package pool decides which completion action a pool needs.
package pool

import (
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// Action is the next step for a pool.
type Action string

const (
	// ActionContribute tops the pool up by the remaining amount.
	ActionContribute Action = "contribute"
	// ActionExecute submits the pooled answer; the pool is fully funded.
	ActionExecute Action = "execute"
	// ActionRefund returns contributions of an expired pool.
	ActionRefund Action = "refund"
	// ActionNone means the pool needs nothing.
	ActionNone Action = "none"
)

// Plan is the completion plan of one pool.
type Plan struct {
	PoolID    uint64  `json:"poolId"`
	Action    Action  `json:"action"`
	Remaining float64 `json:"remaining"`
	// Amount is what the action moves; zero for execute and none.
	Amount float64 `json:"amount"`
	// Redirected is set when a contribution was requested but the pool was
	// already funded.
	Redirected bool   `json:"redirected"`
	Reason     string `json:"reason,omitempty"`
}

// PlanCompletion picks the safe completion action. A zero or negative
// remaining amount is never turned into a contribution; it is redirected to
// execute instead.
func PlanCompletion(p domain.Pool, now time.Time) (Plan, error) {
	if p.ID == 0 {
		return Plan{}, fmt.Errorf("pool: plan: id 0: %w", domain.ErrInvalidInput)
	}
	if math.IsNaN(p.TargetPrice) || math.IsNaN(p.TotalAmount) || p.TargetPrice < 0 || p.TotalAmount < 0 {
		return Plan{}, fmt.Errorf("pool: plan %d: bad amounts: %w", p.ID, domain.ErrInvalidInput)
	}

	plan := Plan{PoolID: p.ID, Remaining: p.Remaining()}

	switch p.Status {
	case domain.PoolStatusExecuted:
		plan.Action = ActionNone
		plan.Reason = "pool already executed"
		return plan, nil
	case domain.PoolStatusExpired:
		plan.Action = ActionRefund
		plan.Amount = p.TotalAmount
		plan.Reason = "pool expired"
		return plan, nil
	}

	if !p.Deadline.IsZero() && !now.Before(p.Deadline) {
		plan.Action = ActionRefund
		plan.Amount = p.TotalAmount
		plan.Reason = "deadline passed"
		return plan, nil
	}

	if plan.Remaining <= 0 {
		plan.Action = ActionExecute
		plan.Redirected = true
		plan.Reason = "pool fully funded"
		return plan, nil
	}

	plan.Action = ActionContribute
	plan.Amount = plan.Remaining
	return plan, nil
}
