package badge

import (
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

const (
	// unrankedRank stands in for a nil rank when computing progress.
	unrankedRank = 999

	leaderboardWindow = 100
	categoryWindow    = 10
)

// CheckEarned reports whether stats satisfy the badge requirement.
func CheckEarned(b domain.Badge, stats domain.UserStats) bool {
	req := b.Requirement
	switch req.Type {
	case domain.ReqJoinDate:
		if stats.FirstSeen == nil {
			return false
		}
		cutoff, ok := decodeDate(req.Value)
		if !ok {
			return false
		}
		return stats.FirstSeen.Before(cutoff)
	case domain.ReqLeaderboardRank:
		return stats.LeaderboardRank != nil && float64(*stats.LeaderboardRank) <= req.Value
	case domain.ReqCategoryRank:
		return stats.CategoryRank != nil && float64(*stats.CategoryRank) <= req.Value
	case domain.ReqRankImprovement:
		return stats.WeeklyRankImprovement > 0 && float64(stats.WeeklyRankImprovement) >= req.Value
	default:
		cur, ok := currentValue(req.Type, stats)
		if !ok {
			return false
		}
		return cur >= req.Value
	}
}

// Progress computes the 0..100 progress of stats toward the badge.
func Progress(b domain.Badge, stats domain.UserStats) domain.BadgeProgress {
	req := b.Requirement
	earned := CheckEarned(b, stats)
	p := domain.BadgeProgress{
		Badge:       b,
		Earned:      earned,
		TargetValue: req.Value,
	}

	switch req.Type {
	case domain.ReqJoinDate:
		// No partial credit for date cutoffs.
		if stats.FirstSeen != nil {
			p.CurrentValue = float64(encodeDate(*stats.FirstSeen))
		}
		if earned {
			p.Progress = 100
		}
		return p
	case domain.ReqLeaderboardRank:
		p.CurrentValue, p.Progress = rankProgress(stats.LeaderboardRank, req.Value, leaderboardWindow)
	case domain.ReqCategoryRank:
		p.CurrentValue, p.Progress = rankProgress(stats.CategoryRank, req.Value, categoryWindow)
	case domain.ReqRankImprovement:
		p.CurrentValue = float64(max(stats.WeeklyRankImprovement, 0))
		p.Progress = linearProgress(p.CurrentValue, req.Value)
	default:
		cur, _ := currentValue(req.Type, stats)
		p.CurrentValue = cur
		p.Progress = linearProgress(cur, req.Value)
	}

	if earned {
		p.Progress = 100
	}
	return p
}

// AllWithProgress evaluates every catalog badge in catalog order.
func AllWithProgress(stats domain.UserStats) []domain.BadgeProgress {
	out := make([]domain.BadgeProgress, 0, len(catalog))
	for _, b := range catalog {
		out = append(out, Progress(b, stats))
	}
	return out
}

// EarnedIDs lists the ids of every earned badge in catalog order.
func EarnedIDs(stats domain.UserStats) []string {
	var ids []string
	for _, b := range catalog {
		if CheckEarned(b, stats) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// NextAchievable returns up to n unearned badges with non-zero progress,
// highest progress first. Ties keep catalog order.
func NextAchievable(stats domain.UserStats, n int) []domain.BadgeProgress {
	if n <= 0 {
		return nil
	}
	var candidates []domain.BadgeProgress
	for _, p := range AllWithProgress(stats) {
		if !p.Earned && p.Progress > 0 {
			candidates = append(candidates, p)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Progress > candidates[j].Progress
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// TotalXP sums the XP rewards of the given badge ids. Unknown ids count 0.
func TotalXP(earnedIDs []string) int {
	total := 0
	for _, id := range earnedIDs {
		if b, ok := Lookup(id); ok {
			total += b.XPReward
		}
	}
	return total
}

func currentValue(t domain.RequirementType, s domain.UserStats) (float64, bool) {
	switch t {
	case domain.ReqTradesCount:
		return float64(s.TradesCount), true
	case domain.ReqVolumeTraded:
		return s.VolumeTraded, true
	case domain.ReqProfitEarned:
		return s.ProfitEarned, true
	case domain.ReqHoldDuration:
		return s.LongestHoldHours, true
	case domain.ReqOpinionsCreated:
		return float64(s.OpinionsCreated), true
	case domain.ReqCreatorFees:
		return s.CreatorFees, true
	case domain.ReqPoolsCreated:
		return float64(s.PoolsCreated), true
	case domain.ReqPoolContributions:
		return s.PoolContributions, true
	case domain.ReqPoolsCompleted:
		return float64(s.PoolsCompleted), true
	case domain.ReqSharesCount:
		return float64(s.SharesCount), true
	case domain.ReqWatchlistCount:
		return float64(s.WatchlistCount), true
	default:
		return 0, false
	}
}

func linearProgress(cur, target float64) float64 {
	if target <= 0 {
		return 100
	}
	if cur <= 0 || math.IsNaN(cur) {
		return 0
	}
	return math.Min(100, cur/target*100)
}

// rankProgress grows as the rank number falls toward target. Unranked users
// are placed at unrankedRank.
func rankProgress(rank *int, target float64, window float64) (float64, float64) {
	r := float64(unrankedRank)
	if rank != nil {
		r = float64(*rank)
	}
	ratio := 1 - (r-target)/window
	ratio = math.Max(0, math.Min(1, ratio))
	if rank == nil {
		return 0, ratio * 100
	}
	return r, ratio * 100
}

// decodeDate turns a YYYYMMDD integer into midnight UTC of that day.
func decodeDate(v float64) (time.Time, bool) {
	n := int(v)
	year, month, day := n/10000, (n/100)%100, n%100
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func encodeDate(t time.Time) int {
	t = t.UTC()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
