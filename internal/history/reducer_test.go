package history

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func ev(block uint64, idx uint, amount float64) domain.TradeEvent {
	return domain.TradeEvent{OpinionID: 1, BlockNumber: block, LogIndex: idx, Amount: amount}
}

func values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func TestReduce_EmptyEvents(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		want    []float64
	}{
		{name: "current differs", current: 3.5, want: []float64{1, 3.5}},
		{name: "current equals opening", current: 1, want: []float64{1}},
		{name: "within epsilon", current: 1 + 1e-9, want: []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := Reduce(nil, nil, DefaultOptions(tt.current, testNow))
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(points))
			assert.Equal(t, PointInitial, points[0].Kind)
		})
	}
}

func TestReduce_FoldsInChainOrder(t *testing.T) {
	buys := []domain.TradeEvent{ev(20, 0, 10), ev(5, 1, 100)}
	sells := []domain.TradeEvent{ev(10, 0, 50)}

	points, err := Reduce(buys, sells, DefaultOptions(59, testNow))
	require.NoError(t, err)
	require.Len(t, points, 5)

	// 1 + 98 = 99, 99 - 50 = 49, 49 + 9.8 = 58.8, then current 59.
	assert.InDelta(t, 99.0, points[1].Value, 1e-9)
	assert.Equal(t, PointBuy, points[1].Kind)
	assert.Equal(t, uint64(5), points[1].Block)
	assert.InDelta(t, 49.0, points[2].Value, 1e-9)
	assert.Equal(t, PointSell, points[2].Kind)
	assert.InDelta(t, 58.8, points[3].Value, 1e-9)
	assert.Equal(t, PointCurrent, points[4].Kind)

	points, err = Reduce(buys, sells, DefaultOptions(58.8, testNow))
	require.NoError(t, err)
	assert.Len(t, points, 4)
	assert.Equal(t, PointBuy, points[3].Kind)
}

func TestReduce_SyntheticTimestamps(t *testing.T) {
	points, err := Reduce([]domain.TradeEvent{ev(1, 0, 1), ev(2, 0, 1)}, nil, DefaultOptions(100, testNow))
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, testNow.Add(-3*time.Hour), points[0].Time)
	assert.Equal(t, testNow.Add(-2*time.Hour), points[1].Time)
	assert.Equal(t, testNow.Add(-1*time.Hour), points[2].Time)
	assert.Equal(t, testNow, points[3].Time)
	assert.Equal(t, PointCurrent, points[3].Kind)
}

func TestReduce_NeverNegative(t *testing.T) {
	sells := []domain.TradeEvent{ev(1, 0, 1e9), ev(2, 0, 5)}
	buys := []domain.TradeEvent{ev(3, 0, 2)}

	points, err := Reduce(buys, sells, DefaultOptions(0, testNow))
	require.NoError(t, err)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
	}
	assert.Equal(t, 0.0, points[1].Value)
	assert.Equal(t, 0.0, points[2].Value)
	assert.InDelta(t, 1.96, points[3].Value, 1e-9)
}

func TestReduce_RejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []float64{math.NaN(), math.Inf(1), -1} {
		_, err := Reduce([]domain.TradeEvent{ev(1, 0, amount)}, nil, DefaultOptions(1, testNow))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestMerge_StableOnTies(t *testing.T) {
	a := ev(7, 3, 1)
	a.TxHash = "a"
	b := ev(7, 3, 2)
	b.TxHash = "b"

	merged := Merge([]domain.TradeEvent{a}, []domain.TradeEvent{b})
	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].TxHash)
	assert.Equal(t, domain.TradeKindBuy, merged[0].Kind)
	assert.Equal(t, domain.TradeKindSell, merged[1].Kind)
}

func TestFallback(t *testing.T) {
	points := Fallback(DefaultOptions(42, testNow))
	assert.Equal(t, []float64{42, 42}, values(points))
	assert.Equal(t, testNow, points[1].Time)
}

func TestSeedAndPartition(t *testing.T) {
	assert.Equal(t, 3.0, Seed(3, 1.0))
	assert.Equal(t, 0.0, Seed(-2, 1.0))

	buy := ev(1, 0, 1)
	buy.Kind = domain.TradeKindBuy
	sell := ev(2, 0, 1)
	sell.Kind = domain.TradeKindSell
	buys, sells := Partition([]domain.TradeEvent{buy, sell, buy})
	assert.Len(t, buys, 2)
	assert.Len(t, sells, 1)
}

func TestSummarize(t *testing.T) {
	s := Summarize(nil, OpeningPrice)
	assert.Equal(t, Stats{First: 1, Last: 1, High: 1, Low: 1}, s)

	s = Summarize([]Point{{Value: 2}, {Value: 5}, {Value: 1}, {Value: 3}}, OpeningPrice)
	assert.Equal(t, 2.0, s.First)
	assert.Equal(t, 3.0, s.Last)
	assert.Equal(t, 5.0, s.High)
	assert.Equal(t, 1.0, s.Low)
	assert.InDelta(t, 50.0, s.ChangePct, 1e-9)

	s = Summarize([]Point{{Value: 0}, {Value: 4}}, OpeningPrice)
	assert.Equal(t, 0.0, s.ChangePct)
}
