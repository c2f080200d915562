// Package market turns indexed opinions into the filtered, sorted and
// paginated views every listing page is built from.
package market

import (
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// Thresholds tunes status derivation and the trending tab.
type Thresholds struct {
	// NewWindow is how long after creation an opinion counts as new.
	NewWindow time.Duration
	// HotWindow is the maximum age of the last trade for a hot opinion.
	HotWindow time.Duration
	// HotVolume is the total volume a hot opinion must exceed.
	HotVolume float64
	// InactiveAfter marks opinions whose last trade is older than this.
	InactiveAfter time.Duration
	// TrendingVolume admits high-volume opinions to the trending tab.
	TrendingVolume float64
}

// DefaultThresholds returns the production thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NewWindow:      24 * time.Hour,
		HotWindow:      time.Hour,
		HotVolume:      100,
		InactiveAfter:  7 * 24 * time.Hour,
		TrendingVolume: 100,
	}
}

// DeriveStatus tags a view as new, hot, inactive or normal. The first
// matching rule wins, and only observed timestamps can match: an estimated
// creation or activity time never produces a status.
func DeriveStatus(v domain.OpinionView, now time.Time, th Thresholds) domain.MarketStatus {
	if v.CreatedAt.IsObserved() && now.Sub(v.CreatedAt.Value) < th.NewWindow {
		return domain.MarketStatusNew
	}
	if v.LastActivity.IsObserved() {
		since := now.Sub(v.LastActivity.Value)
		if since < th.HotWindow && v.TotalVolume > th.HotVolume {
			return domain.MarketStatusHot
		}
		if since > th.InactiveAfter {
			return domain.MarketStatusInactive
		}
	}
	return domain.MarketStatusNormal
}
