package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
	Filter OpinionFilter
	Order  OpinionOrder
}

// OpinionFilter narrows an opinion listing inside the store. The zero value
// matches everything.
type OpinionFilter struct {
	// Tokens are lowercase terms that must all appear in the question or
	// the current answer.
	Tokens   []string
	Category string
	// ExcludeAdult applies the Adult gate.
	ExcludeAdult bool
	Trending     *TrendingFilter
}

// TrendingFilter keeps opinions above MinVolume plus the hot ones: traded
// since HotSince with more than HotVolume, and not created after NewSince.
type TrendingFilter struct {
	MinVolume float64
	HotVolume float64
	HotSince  time.Time
	NewSince  time.Time
}

// OrderField is a store-sortable opinion column.
type OrderField string

const (
	OrderID        OrderField = "id"
	OrderVolume    OrderField = "total_volume"
	OrderNextPrice OrderField = "next_price"
	OrderLastPrice OrderField = "last_price"
	OrderChange    OrderField = "change"
)

// OpinionOrder sorts a listing. Ties always fall back to ascending id; the
// zero value orders by id.
type OpinionOrder struct {
	Field OrderField
	Desc  bool
}

// OpinionStore persists indexed opinions.
type OpinionStore interface {
	Upsert(ctx context.Context, o Opinion) error
	UpsertBatch(ctx context.Context, opinions []Opinion) error
	GetByID(ctx context.Context, id uint64) (Opinion, error)
	// List returns one filtered, ordered window of opinions together with
	// pagination metadata computed over the filtered set.
	List(ctx context.Context, opts ListOpts) ([]Opinion, PageInfo, error)
	Count(ctx context.Context) (int64, error)
	// UpsertMeta stores creation times and on-chain trade counts. Zero
	// values never overwrite known ones.
	UpsertMeta(ctx context.Context, metas []OpinionMeta) error
	// Activity returns event-derived facts per opinion id.
	Activity(ctx context.Context, ids []uint64, now time.Time) (map[uint64]OpinionActivity, error)
}

// TradeEventStore persists chain trade events.
type TradeEventStore interface {
	InsertBatch(ctx context.Context, events []TradeEvent) error
	// LastBlock is the indexer cursor: the last fully indexed block.
	LastBlock(ctx context.Context) (uint64, error)
	SetLastBlock(ctx context.Context, block uint64) error
	ListByOpinion(ctx context.Context, opinionID uint64) ([]TradeEvent, error)
	ListAll(ctx context.Context) ([]TradeEvent, error)
	// ListRange returns events with from <= block < to in chain order.
	ListRange(ctx context.Context, from, to uint64) ([]TradeEvent, error)
	DeleteBefore(ctx context.Context, before uint64) (int64, error)
}

// PoolStore persists pools.
type PoolStore interface {
	Upsert(ctx context.Context, p Pool) error
	// AddContributions records contributions and raises pool totals.
	AddContributions(ctx context.Context, cs []PoolContribution) error
	MarkExecuted(ctx context.Context, ids []uint64) error
	GetByID(ctx context.Context, id uint64) (Pool, error)
	ListByOpinion(ctx context.Context, opinionID uint64) ([]Pool, error)
}

// UserStatsProvider aggregates cross-cutting counts for one address.
type UserStatsProvider interface {
	Stats(ctx context.Context, address string) (UserStats, error)
}
