// Package badge evaluates the static achievement catalog against a user's
// statistics and converts cumulative XP into levels.
package badge

import "github.com/alanyoungcy/opinionmarketcap/internal/domain"

// catalog is defined at build time; badges are never created or removed at
// runtime. Order matters: it breaks ties in NextAchievable.
var catalog = []domain.Badge{
	// Trading
	{ID: "first_trade", Name: "First Trade", Description: "Complete your first trade",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqTradesCount, Value: 1, Unit: "trades"}, XPReward: 50},
	{ID: "active_trader", Name: "Active Trader", Description: "Complete 10 trades",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqTradesCount, Value: 10, Unit: "trades"}, XPReward: 100},
	{ID: "market_maker", Name: "Market Maker", Description: "Complete 100 trades",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityEpic,
		Requirement: domain.Requirement{Type: domain.ReqTradesCount, Value: 100, Unit: "trades"}, XPReward: 500},
	{ID: "volume_starter", Name: "Volume Starter", Description: "Trade 100 USDC in total",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqVolumeTraded, Value: 100, Unit: "USDC"}, XPReward: 100},
	{ID: "whale", Name: "Whale", Description: "Trade 10,000 USDC in total",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityLegendary,
		Requirement: domain.Requirement{Type: domain.ReqVolumeTraded, Value: 10000, Unit: "USDC"}, XPReward: 1000},
	{ID: "in_the_green", Name: "In the Green", Description: "Earn 100 USDC in trading profit",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityRare,
		Requirement: domain.Requirement{Type: domain.ReqProfitEarned, Value: 100, Unit: "USDC"}, XPReward: 250},
	{ID: "diamond_hands", Name: "Diamond Hands", Description: "Hold an answer for 7 days",
		Category: domain.BadgeCategoryTrading, Rarity: domain.RarityRare,
		Requirement: domain.Requirement{Type: domain.ReqHoldDuration, Value: 168, Unit: "hours"}, XPReward: 250},

	// Creation
	{ID: "first_opinion", Name: "Opinion Maker", Description: "Create your first opinion",
		Category: domain.BadgeCategoryCreation, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqOpinionsCreated, Value: 1, Unit: "opinions"}, XPReward: 75},
	{ID: "prolific_creator", Name: "Prolific Creator", Description: "Create 10 opinions",
		Category: domain.BadgeCategoryCreation, Rarity: domain.RarityRare,
		Requirement: domain.Requirement{Type: domain.ReqOpinionsCreated, Value: 10, Unit: "opinions"}, XPReward: 300},
	{ID: "fee_collector", Name: "Fee Collector", Description: "Earn 50 USDC in creator fees",
		Category: domain.BadgeCategoryCreation, Rarity: domain.RarityEpic,
		Requirement: domain.Requirement{Type: domain.ReqCreatorFees, Value: 50, Unit: "USDC"}, XPReward: 500},

	// Community
	{ID: "pool_founder", Name: "Pool Founder", Description: "Create a pool",
		Category: domain.BadgeCategoryCommunity, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqPoolsCreated, Value: 1, Unit: "pools"}, XPReward: 75},
	{ID: "team_player", Name: "Team Player", Description: "Contribute 100 USDC to pools",
		Category: domain.BadgeCategoryCommunity, Rarity: domain.RarityRare,
		Requirement: domain.Requirement{Type: domain.ReqPoolContributions, Value: 100, Unit: "USDC"}, XPReward: 200},
	{ID: "pool_closer", Name: "Pool Closer", Description: "Help complete 3 pools",
		Category: domain.BadgeCategoryCommunity, Rarity: domain.RarityEpic,
		Requirement: domain.Requirement{Type: domain.ReqPoolsCompleted, Value: 3, Unit: "pools"}, XPReward: 400},
	{ID: "spreader", Name: "Spreader", Description: "Share 5 opinions",
		Category: domain.BadgeCategoryCommunity, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqSharesCount, Value: 5, Unit: "shares"}, XPReward: 50},
	{ID: "watcher", Name: "Watcher", Description: "Watch 10 opinions",
		Category: domain.BadgeCategoryCommunity, Rarity: domain.RarityCommon,
		Requirement: domain.Requirement{Type: domain.ReqWatchlistCount, Value: 10, Unit: "opinions"}, XPReward: 50},
	{ID: "early_adopter", Name: "Early Adopter", Description: "Joined before 2025-09-01",
		Category: domain.BadgeCategoryCommunity, Rarity: domain.RarityLegendary,
		Requirement: domain.Requirement{Type: domain.ReqJoinDate, Value: 20250901, Unit: "date"}, XPReward: 500},

	// Leaderboard
	{ID: "top_100", Name: "Top 100", Description: "Reach the top 100 of the leaderboard",
		Category: domain.BadgeCategoryLeaderboard, Rarity: domain.RarityRare,
		Requirement: domain.Requirement{Type: domain.ReqLeaderboardRank, Value: 100, Unit: "rank"}, XPReward: 300},
	{ID: "top_10", Name: "Top 10", Description: "Reach the top 10 of the leaderboard",
		Category: domain.BadgeCategoryLeaderboard, Rarity: domain.RarityLegendary,
		Requirement: domain.Requirement{Type: domain.ReqLeaderboardRank, Value: 10, Unit: "rank"}, XPReward: 1000},
	{ID: "category_champion", Name: "Category Champion", Description: "Rank first in a category",
		Category: domain.BadgeCategoryLeaderboard, Rarity: domain.RarityEpic,
		Requirement: domain.Requirement{Type: domain.ReqCategoryRank, Value: 1, Unit: "rank"}, XPReward: 600},
	{ID: "climber", Name: "Climber", Description: "Climb 10 leaderboard places in a week",
		Category: domain.BadgeCategoryLeaderboard, Rarity: domain.RarityRare,
		Requirement: domain.Requirement{Type: domain.ReqRankImprovement, Value: 10, Unit: "places"}, XPReward: 200},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, b := range catalog {
		idx[b.ID] = i
	}
	return idx
}()

// Catalog returns a copy of the badge catalog in definition order.
func Catalog() []domain.Badge {
	out := make([]domain.Badge, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the badge with the given id.
func Lookup(id string) (domain.Badge, bool) {
	i, ok := catalogIndex[id]
	if !ok {
		return domain.Badge{}, false
	}
	return catalog[i], true
}
