package domain

import "time"

// TradeKind distinguishes buys from sells.
type TradeKind string

const (
	TradeKindBuy  TradeKind = "buy"
	TradeKindSell TradeKind = "sell"
)

// TradeEvent is one immutable buy or sell observed on chain. Events are
// ordered by (BlockNumber, LogIndex), never by wall clock.
type TradeEvent struct {
	OpinionID   uint64    `json:"opinionId"`
	AnswerID    uint64    `json:"answerId"`
	Actor       string    `json:"actor"`
	Amount      float64   `json:"amount"`
	NewPrice    float64   `json:"newPrice"`
	Kind        TradeKind `json:"kind"`
	BlockNumber uint64    `json:"blockNumber"`
	LogIndex    uint      `json:"logIndex"`
	TxHash      string    `json:"txHash"`
	// BlockTime is the block timestamp when known; zero otherwise.
	BlockTime time.Time `json:"blockTime"`
}

// Before reports whether e precedes other in chain order.
func (e TradeEvent) Before(other TradeEvent) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	return e.LogIndex < other.LogIndex
}

// OpinionActivity aggregates the indexed facts for one opinion. Timestamps
// are nil when no event carrying them has been observed.
type OpinionActivity struct {
	OpinionID uint64
	// CreatedAt comes from the creation event.
	CreatedAt *time.Time
	// OnChainTrades is the contract's own answer history length, 0 if unknown.
	OnChainTrades int
	EventCount    int
	FirstEventAt  *time.Time
	LastEventAt   *time.Time
	Volume24h     float64
}

// OpinionMeta carries indexer-only facts about an opinion.
type OpinionMeta struct {
	ID            uint64
	CreatedAt     *time.Time
	OnChainTrades int
}
