package badge

import (
	"math"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

type levelDef struct {
	level      int
	xpRequired int
	title      string
}

// levels must stay sorted by xpRequired ascending.
var levels = []levelDef{
	{1, 0, "Newcomer"},
	{2, 100, "Curious Mind"},
	{3, 250, "Opinionated"},
	{4, 500, "Debater"},
	{5, 1000, "Influencer"},
	{6, 2000, "Thought Leader"},
	{7, 3500, "Market Sage"},
	{8, 5500, "Oracle"},
	{9, 8000, "Visionary"},
	{10, 12000, "Legend"},
}

// MaxLevelXP is the threshold of the highest level.
func MaxLevelXP() int { return levels[len(levels)-1].xpRequired }

// LevelFromXP maps cumulative XP to a level, its title and the progress
// toward the next level. At the top level XPForNext is 0 and Progress 100.
func LevelFromXP(xp int) domain.Level {
	if xp < 0 {
		xp = 0
	}

	idx := 0
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].xpRequired <= xp {
			idx = i
			break
		}
	}
	cur := levels[idx]
	next := cur
	if idx+1 < len(levels) {
		next = levels[idx+1]
	}

	out := domain.Level{
		Level: cur.level,
		Title: cur.title,
		XP:    xp,
	}

	span := next.xpRequired - cur.xpRequired
	if span <= 0 {
		out.XPForNext = 0
		out.Progress = 100
		return out
	}

	out.XPForNext = next.xpRequired - xp
	progress := float64(xp-cur.xpRequired) / float64(span) * 100
	out.Progress = math.Max(0, math.Min(100, progress))
	return out
}
