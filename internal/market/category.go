package market

import (
	"math"
	"strings"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// FallbackColor is used for categories without a dedicated colour.
const FallbackColor = "#6b7280"

var categoryColors = map[string]string{
	"Crypto":        "#f59e0b",
	"Politics":      "#ef4444",
	"Sports":        "#10b981",
	"Technology":    "#3b82f6",
	"Entertainment": "#ec4899",
	"Finance":       "#14b8a6",
	"Science":       "#8b5cf6",
	"Culture":       "#f97316",
	"Gaming":        "#6366f1",
	"Adult":         "#be123c",
	"Other":         FallbackColor,
}

// CategoryColor returns the badge colour of a category, case-insensitively,
// falling back to FallbackColor.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	for name, c := range categoryColors {
		if strings.EqualFold(name, strings.TrimSpace(category)) {
			return c
		}
	}
	return FallbackColor
}

// PrimaryColor is the colour of the opinion's primary category.
func PrimaryColor(o domain.Opinion) string {
	return CategoryColor(o.PrimaryCategory())
}

// QualityScore rates a view from 0 to 100 on traded volume, trading
// activity and answer completeness. Estimated trade counts earn half.
func QualityScore(v domain.OpinionView) float64 {
	var score float64

	if v.TotalVolume > 0 && !math.IsNaN(v.TotalVolume) {
		score += math.Min(40, math.Log10(1+v.TotalVolume)*10)
	}

	trades := math.Min(30, float64(v.TradeCount.Value)*3)
	if !v.TradeCount.IsObserved() {
		trades /= 2
	}
	score += math.Max(0, trades)

	if strings.TrimSpace(v.Link) != "" {
		score += 10
	}
	if strings.TrimSpace(v.CurrentAnswerDescription) != "" {
		score += 10
	}
	if v.IsActive {
		score += 10
	}
	return math.Max(0, math.Min(100, score))
}
