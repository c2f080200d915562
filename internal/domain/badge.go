package domain

import "time"

// BadgeCategory groups badges in the catalog.
type BadgeCategory string

const (
	BadgeCategoryTrading     BadgeCategory = "trading"
	BadgeCategoryCreation    BadgeCategory = "creation"
	BadgeCategoryCommunity   BadgeCategory = "community"
	BadgeCategoryLeaderboard BadgeCategory = "leaderboard"
)

// BadgeRarity is a display tier.
type BadgeRarity string

const (
	RarityCommon    BadgeRarity = "common"
	RarityRare      BadgeRarity = "rare"
	RarityEpic      BadgeRarity = "epic"
	RarityLegendary BadgeRarity = "legendary"
)

// RequirementType names the statistic a badge threshold applies to.
type RequirementType string

const (
	ReqTradesCount       RequirementType = "trades_count"
	ReqVolumeTraded      RequirementType = "volume_traded"
	ReqProfitEarned      RequirementType = "profit_earned"
	ReqHoldDuration      RequirementType = "hold_duration"
	ReqOpinionsCreated   RequirementType = "opinions_created"
	ReqCreatorFees       RequirementType = "creator_fees"
	ReqPoolsCreated      RequirementType = "pools_created"
	ReqPoolContributions RequirementType = "pool_contributions"
	ReqPoolsCompleted    RequirementType = "pools_completed"
	ReqSharesCount       RequirementType = "shares_count"
	ReqWatchlistCount    RequirementType = "watchlist_count"
	ReqJoinDate          RequirementType = "join_date"
	ReqLeaderboardRank   RequirementType = "leaderboard_rank"
	ReqCategoryRank      RequirementType = "category_rank"
	ReqRankImprovement   RequirementType = "rank_improvement"
)

// Requirement is the single threshold rule of a badge. For ReqJoinDate the
// value is a YYYYMMDD-encoded date.
type Requirement struct {
	Type  RequirementType `json:"type"`
	Value float64         `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

// Badge is a static catalog entry.
type Badge struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    BadgeCategory `json:"category"`
	Rarity      BadgeRarity   `json:"rarity"`
	Requirement Requirement   `json:"requirement"`
	XPReward    int           `json:"xpReward"`
}

// BadgeProgress is the derived state of one badge for one user.
type BadgeProgress struct {
	Badge        Badge   `json:"badge"`
	Earned       bool    `json:"earned"`
	Progress     float64 `json:"progress"`
	CurrentValue float64 `json:"currentValue"`
	TargetValue  float64 `json:"targetValue"`
}

// UserStats is recomputed from source records for one address. Only
// SharesCount and FirstSeen may come from the local preference cache.
type UserStats struct {
	Address               string     `json:"address"`
	TradesCount           int        `json:"tradesCount"`
	VolumeTraded          float64    `json:"volumeTraded"`
	ProfitEarned          float64    `json:"profitEarned"`
	LongestHoldHours      float64    `json:"longestHoldHours"`
	OpinionsCreated       int        `json:"opinionsCreated"`
	CreatorFees           float64    `json:"creatorFees"`
	PoolsCreated          int        `json:"poolsCreated"`
	PoolContributions     float64    `json:"poolContributions"`
	PoolsCompleted        int        `json:"poolsCompleted"`
	SharesCount           int        `json:"sharesCount"`
	WatchlistCount        int        `json:"watchlistCount"`
	FirstSeen             *time.Time `json:"firstSeen,omitempty"`
	LeaderboardRank       *int       `json:"leaderboardRank,omitempty"`
	CategoryRank          *int       `json:"categoryRank,omitempty"`
	WeeklyRankImprovement int        `json:"weeklyRankImprovement"`
}

// Level is the gamification tier derived from cumulative XP.
type Level struct {
	Level     int     `json:"level"`
	Title     string  `json:"title"`
	XP        int     `json:"xp"`
	XPForNext int     `json:"xpForNext"`
	Progress  float64 `json:"progress"`
}
