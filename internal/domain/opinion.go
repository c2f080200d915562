package domain

import (
	"strings"
	"time"
)

const (
	// CategoryAll is the sentinel category that matches every opinion.
	CategoryAll = "All Categories"
	// CategoryAdult marks opinions that are hidden unless age is verified.
	CategoryAdult = "Adult"
	// CategoryOther is used when an opinion carries no category at all.
	CategoryOther = "Other"

	// NoLinkMessage is shown when the current answer has no link.
	NoLinkMessage = "No link available"
)

// Opinion is a single tradable market: a question plus its currently owned
// answer. Prices and volume are in USDC units.
type Opinion struct {
	ID                       uint64   `json:"id"`
	Question                 string   `json:"question"`
	CurrentAnswer            string   `json:"currentAnswer"`
	CurrentAnswerDescription string   `json:"currentAnswerDescription"`
	Link                     string   `json:"link"`
	CurrentAnswerOwner       string   `json:"currentAnswerOwner"`
	Creator                  string   `json:"creator"`
	NextPrice                float64  `json:"nextPrice"`
	LastPrice                float64  `json:"lastPrice"`
	TotalVolume              float64  `json:"totalVolume"`
	Categories               []string `json:"categories"`
	IsActive                 bool     `json:"isActive"`
	SalePrice                float64  `json:"salePrice"`
}

// PrimaryCategory returns the first category, or CategoryOther when the
// opinion has none.
func (o Opinion) PrimaryCategory() string {
	for _, c := range o.Categories {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return CategoryOther
}

// CategoryList returns the categories with CategoryOther substituted for an
// empty set.
func (o Opinion) CategoryList() []string {
	if len(o.Categories) == 0 {
		return []string{CategoryOther}
	}
	return o.Categories
}

// HasCategory reports whether the opinion is tagged with category.
func (o Opinion) HasCategory(category string) bool {
	for _, c := range o.CategoryList() {
		if c == category {
			return true
		}
	}
	return false
}

// IsAdult reports whether the opinion carries the Adult tag.
func (o Opinion) IsAdult() bool {
	return o.HasCategory(CategoryAdult)
}

// IsQuestionForSale reports whether the question itself is listed for sale.
func (o Opinion) IsQuestionForSale() bool {
	return o.SalePrice > 0
}

// PriceChange is the signed difference between the next and last price.
func (o Opinion) PriceChange() float64 {
	return o.NextPrice - o.LastPrice
}

// PriceChangePct is PriceChange relative to LastPrice, or 0 when there is no
// last price.
func (o Opinion) PriceChangePct() float64 {
	if o.LastPrice <= 0 {
		return 0
	}
	return (o.NextPrice - o.LastPrice) / o.LastPrice * 100
}

// LinkMessage returns the answer link or NoLinkMessage.
func (o Opinion) LinkMessage() string {
	if strings.TrimSpace(o.Link) == "" {
		return NoLinkMessage
	}
	return o.Link
}

// MarketStatus is a derived activity tag.
type MarketStatus string

const (
	MarketStatusNew      MarketStatus = "new"
	MarketStatusHot      MarketStatus = "hot"
	MarketStatusInactive MarketStatus = "inactive"
	MarketStatusNormal   MarketStatus = "normal"
)

// OpinionView is an Opinion decorated with derived fields.
type OpinionView struct {
	Opinion
	CreatedAt    Sourced[time.Time] `json:"createdAt"`
	LastActivity Sourced[time.Time] `json:"lastActivity"`
	TradeCount   Sourced[int]       `json:"tradeCount"`
	Volume24h    float64            `json:"volume24h"`
	Status       MarketStatus       `json:"marketStatus"`
	QualityScore float64            `json:"qualityScore"`
}

// PageInfo describes an upstream (server-side) pagination window.
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	PageCount  int `json:"pageCount"`
}
