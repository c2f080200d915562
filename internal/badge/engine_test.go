package badge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func mustLookup(t *testing.T, id string) domain.Badge {
	t.Helper()
	b, ok := Lookup(id)
	require.True(t, ok, "badge %s missing from catalog", id)
	return b
}

func TestCatalog_CoversEveryRequirementType(t *testing.T) {
	seen := map[domain.RequirementType]bool{}
	ids := map[string]bool{}
	for _, b := range Catalog() {
		seen[b.Requirement.Type] = true
		assert.False(t, ids[b.ID], "duplicate badge id %s", b.ID)
		ids[b.ID] = true
	}
	assert.Len(t, seen, 15)
}

func TestFirstTrade(t *testing.T) {
	b := mustLookup(t, "first_trade")

	p := Progress(b, domain.UserStats{TradesCount: 0})
	assert.False(t, p.Earned)
	assert.Equal(t, 0.0, p.Progress)

	p = Progress(b, domain.UserStats{TradesCount: 1})
	assert.True(t, p.Earned)
	assert.Equal(t, 100.0, p.Progress)
}

func TestLeaderboardRank(t *testing.T) {
	b := mustLookup(t, "top_10")
	require.Equal(t, 10.0, b.Requirement.Value)

	tests := []struct {
		name     string
		rank     *int
		earned   bool
		progress float64
	}{
		{name: "unranked", rank: nil, earned: false, progress: 0},
		{name: "exactly target", rank: intPtr(10), earned: true, progress: 100},
		{name: "better than target", rank: intPtr(3), earned: true, progress: 100},
		{name: "inside window", rank: intPtr(60), earned: false, progress: 50},
		{name: "outside window", rank: intPtr(500), earned: false, progress: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := domain.UserStats{LeaderboardRank: tt.rank}
			assert.Equal(t, tt.earned, CheckEarned(b, stats))
			assert.InDelta(t, tt.progress, Progress(b, stats).Progress, 1e-9)
		})
	}
}

func TestCategoryRank_UsesSmallerWindow(t *testing.T) {
	b := mustLookup(t, "category_champion")

	p := Progress(b, domain.UserStats{CategoryRank: intPtr(6)})
	assert.False(t, p.Earned)
	assert.InDelta(t, 50.0, p.Progress, 1e-9)

	p = Progress(b, domain.UserStats{CategoryRank: intPtr(1)})
	assert.True(t, p.Earned)
}

func TestJoinDate(t *testing.T) {
	b := mustLookup(t, "early_adopter")

	tests := []struct {
		name      string
		firstSeen *time.Time
		earned    bool
	}{
		{name: "never seen", firstSeen: nil, earned: false},
		{name: "day before cutoff", firstSeen: timePtr(time.Date(2025, time.August, 31, 23, 59, 0, 0, time.UTC)), earned: true},
		{name: "on cutoff", firstSeen: timePtr(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)), earned: false},
		{name: "after cutoff", firstSeen: timePtr(time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)), earned: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Progress(b, domain.UserStats{FirstSeen: tt.firstSeen})
			assert.Equal(t, tt.earned, p.Earned)
			if tt.earned {
				assert.Equal(t, 100.0, p.Progress)
			} else {
				assert.Equal(t, 0.0, p.Progress)
			}
		})
	}
}

func TestDecodeDate_MonthIsOneIndexed(t *testing.T) {
	d, ok := decodeDate(20250131)
	require.True(t, ok)
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 31, d.Day())

	_, ok = decodeDate(20251301)
	assert.False(t, ok)
}

func TestRankImprovement(t *testing.T) {
	b := mustLookup(t, "climber")

	assert.False(t, CheckEarned(b, domain.UserStats{WeeklyRankImprovement: -20}))
	assert.Equal(t, 0.0, Progress(b, domain.UserStats{WeeklyRankImprovement: -20}).Progress)
	assert.InDelta(t, 50.0, Progress(b, domain.UserStats{WeeklyRankImprovement: 5}).Progress, 1e-9)
	assert.True(t, CheckEarned(b, domain.UserStats{WeeklyRankImprovement: 10}))
}

func TestLinearProgress_Capped(t *testing.T) {
	b := mustLookup(t, "volume_starter")
	p := Progress(b, domain.UserStats{VolumeTraded: 25})
	assert.InDelta(t, 25.0, p.Progress, 1e-9)
	assert.Equal(t, 25.0, p.CurrentValue)
	assert.Equal(t, 100.0, p.TargetValue)

	p = Progress(b, domain.UserStats{VolumeTraded: 1e6})
	assert.Equal(t, 100.0, p.Progress)
}

func TestNextAchievable(t *testing.T) {
	stats := domain.UserStats{
		TradesCount:    5,  // first_trade earned, active_trader 50%, market_maker 5%
		VolumeTraded:   50, // volume_starter 50%, whale 0.5%
		WatchlistCount: 9,  // watcher 90%
	}

	next := NextAchievable(stats, 3)
	require.Len(t, next, 3)
	assert.Equal(t, "watcher", next[0].Badge.ID)
	// active_trader and volume_starter tie at 50%; catalog order decides.
	assert.Equal(t, "active_trader", next[1].Badge.ID)
	assert.Equal(t, "volume_starter", next[2].Badge.ID)

	for _, p := range NextAchievable(stats, 100) {
		assert.False(t, p.Earned)
		assert.Greater(t, p.Progress, 0.0)
	}
	assert.Nil(t, NextAchievable(stats, 0))
}

func TestTotalXP(t *testing.T) {
	assert.Equal(t, 0, TotalXP(nil))
	assert.Equal(t, 150, TotalXP([]string{"first_trade", "active_trader"}))
	assert.Equal(t, 50, TotalXP([]string{"first_trade", "does_not_exist"}))
}

func TestEarnedIDs(t *testing.T) {
	ids := EarnedIDs(domain.UserStats{TradesCount: 10, LeaderboardRank: intPtr(50)})
	assert.Equal(t, []string{"first_trade", "active_trader", "top_100"}, ids)
}
