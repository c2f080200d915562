// Package history replays chain-ordered buy and sell events into a
// cumulative value series suitable for charting.
package history

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const (
	// OpeningPrice is the price of a freshly created opinion.
	OpeningPrice = 1.00

	// DefaultFeeRate approximates the share of a buy that ends up in the
	// market. It is a chart-only approximation and does not track the
	// contract fee schedule.
	DefaultFeeRate = 0.02
	DefaultEpsilon = 1e-6
	DefaultSpacing = time.Hour
)

// PointKind labels where a point in the series came from.
type PointKind string

const (
	PointInitial PointKind = "initial"
	PointBuy     PointKind = "buy"
	PointSell    PointKind = "sell"
	PointCurrent PointKind = "current"
)

// Point is one sample of the series. Time is synthetic and only meant for
// x-axis placement.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
	Kind  PointKind `json:"kind"`
	// Block is the chain block of the event behind the point, 0 for the
	// initial and current points.
	Block uint64 `json:"block,omitempty"`
}

// Options controls a reduction.
type Options struct {
	// Opening seeds the running total.
	Opening float64
	// Current is the authoritative on-chain value.
	Current float64
	FeeRate float64
	Epsilon float64
	Spacing time.Duration
	Now     time.Time
}

// DefaultOptions returns options for a single-answer price series ending at
// current.
func DefaultOptions(current float64, now time.Time) Options {
	return Options{
		Opening: OpeningPrice,
		Current: current,
		FeeRate: DefaultFeeRate,
		Epsilon: DefaultEpsilon,
		Spacing: DefaultSpacing,
		Now:     now,
	}
}

// Seed is the opening total of a multi-answer aggregate.
func Seed(answers int, stakePerAnswer float64) float64 {
	if answers <= 0 {
		return 0
	}
	return float64(answers) * stakePerAnswer
}

// Partition splits a mixed event list by kind.
func Partition(events []domain.TradeEvent) (buys, sells []domain.TradeEvent) {
	for _, e := range events {
		if e.Kind == domain.TradeKindSell {
			sells = append(sells, e)
		} else {
			buys = append(buys, e)
		}
	}
	return buys, sells
}

// Merge combines buys and sells into one sequence in chain order. The
// returned events carry the kind of the list they came from.
func Merge(buys, sells []domain.TradeEvent) []domain.TradeEvent {
	out := make([]domain.TradeEvent, 0, len(buys)+len(sells))
	for _, e := range buys {
		e.Kind = domain.TradeKindBuy
		out = append(out, e)
	}
	for _, e := range sells {
		e.Kind = domain.TradeKindSell
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b domain.TradeEvent) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Reduce merges buys and sells and folds them into a series. It fails with
// domain.ErrInvalidInput when an amount is NaN, infinite or negative; no
// partial series is returned in that case.
func Reduce(buys, sells []domain.TradeEvent, opts Options) ([]Point, error) {
	opts = withDefaults(opts)
	events := Merge(buys, sells)
	for _, e := range events {
		if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) || e.Amount < 0 {
			return nil, fmt.Errorf("history: reduce: event %s/%d amount %v: %w",
				e.TxHash, e.LogIndex, e.Amount, domain.ErrInvalidInput)
		}
	}

	n := len(events)
	points := make([]Point, 0, n+2)
	points = append(points, Point{
		Time:  opts.Now.Add(-time.Duration(n+1) * opts.Spacing),
		Value: opts.Opening,
		Kind:  PointInitial,
	})

	total := opts.Opening
	for i, e := range events {
		kind := PointBuy
		if e.Kind == domain.TradeKindSell {
			total -= e.Amount
			kind = PointSell
		} else {
			total += e.Amount * (1 - opts.FeeRate)
		}
		total = max(total, 0)

		remaining := n - i
		points = append(points, Point{
			Time:  opts.Now.Add(-time.Duration(remaining) * opts.Spacing),
			Value: total,
			Kind:  kind,
			Block: e.BlockNumber,
		})
	}

	if math.Abs(opts.Current-total) > opts.Epsilon {
		points = append(points, Point{
			Time:  opts.Now,
			Value: opts.Current,
			Kind:  PointCurrent,
		})
	}
	return points, nil
}

// Fallback is the minimal series used when events cannot be loaded: two
// points, both at the authoritative current value.
func Fallback(opts Options) []Point {
	opts = withDefaults(opts)
	return []Point{
		{Time: opts.Now.Add(-opts.Spacing), Value: opts.Current, Kind: PointInitial},
		{Time: opts.Now, Value: opts.Current, Kind: PointCurrent},
	}
}

func withDefaults(opts Options) Options {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.Spacing <= 0 {
		opts.Spacing = DefaultSpacing
	}
	if opts.FeeRate < 0 || opts.FeeRate >= 1 {
		opts.FeeRate = DefaultFeeRate
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return opts
}
