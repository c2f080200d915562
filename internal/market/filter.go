package market

import (
	"strings"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// Tab selects a listing tab.
type Tab string

const (
	TabAll      Tab = "all"
	TabTrending Tab = "trending"
	TabFeatured Tab = "featured"
)

// Filter holds the listing filter configuration.
type Filter struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Tab      Tab    `json:"tab"`
	// AdultVerified must be set explicitly before Adult opinions are shown.
	AdultVerified bool `json:"adultVerified"`
	// MinQuality drops views scoring below it; 0 disables the check.
	MinQuality float64 `json:"minQuality"`
}

// Tokens splits a search query into lowercase whitespace-separated terms.
func Tokens(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Match reports whether v passes every filter stage.
func (f Filter) Match(v domain.OpinionView, th Thresholds) bool {
	return f.match(v, Tokens(f.Search), th)
}

// Apply returns the views passing f, preserving order.
func (f Filter) Apply(views []domain.OpinionView, th Thresholds) []domain.OpinionView {
	tokens := Tokens(f.Search)
	out := make([]domain.OpinionView, 0, len(views))
	for _, v := range views {
		if f.match(v, tokens, th) {
			out = append(out, v)
		}
	}
	return out
}

func (f Filter) match(v domain.OpinionView, tokens []string, th Thresholds) bool {
	return f.matchTokens(v, tokens) &&
		f.matchAdult(v) &&
		f.matchCategory(v) &&
		f.matchTab(v, th) &&
		f.matchQuality(v)
}

// matchTokens requires every token to be a substring of the question and
// answer text; token order does not matter.
func (f Filter) matchTokens(v domain.OpinionView, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	haystack := strings.ToLower(v.Question + " " + v.CurrentAnswer)
	for _, t := range tokens {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

// matchAdult is a hard gate and runs before category matching, so the
// "All Categories" sentinel cannot bypass it.
func (f Filter) matchAdult(v domain.OpinionView) bool {
	return f.AdultVerified || !v.IsAdult()
}

func (f Filter) matchCategory(v domain.OpinionView) bool {
	if f.Category == "" || f.Category == domain.CategoryAll {
		return true
	}
	return v.HasCategory(f.Category)
}

func (f Filter) matchTab(v domain.OpinionView, th Thresholds) bool {
	switch f.Tab {
	case TabTrending:
		return v.Status == domain.MarketStatusHot || v.TotalVolume > th.TrendingVolume
	default:
		// featured has no curation yet and shows everything.
		return true
	}
}

func (f Filter) matchQuality(v domain.OpinionView) bool {
	return f.MinQuality <= 0 || v.QualityScore >= f.MinQuality
}
