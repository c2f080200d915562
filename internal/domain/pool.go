package domain

import "time"

// PoolStatus is the lifecycle state of a pool.
type PoolStatus string

const (
	PoolStatusActive   PoolStatus = "active"
	PoolStatusExecuted PoolStatus = "executed"
	PoolStatusExpired  PoolStatus = "expired"
)

// Pool collects contributions toward affording one answer submission.
type Pool struct {
	ID             uint64     `json:"id"`
	OpinionID      uint64     `json:"opinionId"`
	Creator        string     `json:"creator"`
	ProposedAnswer string     `json:"proposedAnswer"`
	TargetPrice    float64    `json:"targetPrice"`
	TotalAmount    float64    `json:"totalAmount"`
	Deadline       time.Time  `json:"deadline"`
	Status         PoolStatus `json:"status"`
}

// Remaining is the amount still needed to reach the target price. It can be
// zero or negative when the pool is over-funded.
func (p Pool) Remaining() float64 {
	return p.TargetPrice - p.TotalAmount
}

// PoolContribution is one on-chain contribution to a pool.
type PoolContribution struct {
	PoolID      uint64    `json:"poolId"`
	Contributor string    `json:"contributor"`
	Amount      float64   `json:"amount"`
	BlockNumber uint64    `json:"blockNumber"`
	LogIndex    uint      `json:"logIndex"`
	BlockTime   time.Time `json:"blockTime"`
}
