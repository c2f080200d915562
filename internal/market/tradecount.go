package market

import (
	"math"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// maxEstimatedTrades caps the volume/price heuristic when price is tiny.
const maxEstimatedTrades = 20

// DeriveTradeCount picks the best available trade count: the contract's
// own history, then indexed events, then an estimate from volume and price.
// Indexed events may undercount when the scanned block range is limited.
func DeriveTradeCount(onChain, fromEvents int, totalVolume, nextPrice float64) domain.Sourced[int] {
	if onChain > 0 {
		return domain.Observed(onChain)
	}
	if fromEvents > 0 {
		return domain.Observed(fromEvents)
	}
	return domain.Estimated(estimateTrades(totalVolume, nextPrice))
}

func estimateTrades(totalVolume, nextPrice float64) int {
	if math.IsNaN(totalVolume) || totalVolume <= 0 {
		return 1
	}
	if math.IsNaN(nextPrice) || nextPrice <= 0 {
		return maxEstimatedTrades
	}
	n := math.Ceil(totalVolume / nextPrice)
	return int(math.Max(1, math.Min(maxEstimatedTrades, n)))
}
