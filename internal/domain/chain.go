package domain

import (
	"context"
	"time"
)

// OpinionCreation is the chain record of a new opinion.
type OpinionCreation struct {
	OpinionID   uint64    `json:"opinionId"`
	Creator     string    `json:"creator"`
	BlockNumber uint64    `json:"blockNumber"`
	BlockTime   time.Time `json:"blockTime"`
}

// ChainScan is everything decoded from one block range.
type ChainScan struct {
	FromBlock uint64
	ToBlock   uint64
	Trades    []TradeEvent
	Creations []OpinionCreation
	// Pools holds pools created in the range with their initial state.
	Pools         []Pool
	Contributions []PoolContribution
	// ExecutedPools lists ids of pools executed in the range.
	ExecutedPools []uint64
}

// ChainReader reads opinion state and events from the opinion contract. A
// nil bound means earliest (from) or latest (to).
type ChainReader interface {
	NextOpinionID(ctx context.Context) (uint64, error)
	GetOpinion(ctx context.Context, id uint64) (Opinion, error)
	// TradeCount is the length of the on-chain answer history.
	TradeCount(ctx context.Context, id uint64) (int, error)
	LatestBlock(ctx context.Context) (uint64, error)
	Scan(ctx context.Context, from, to *uint64) (ChainScan, error)
}
