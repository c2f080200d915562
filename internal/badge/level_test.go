package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromXP(t *testing.T) {
	tests := []struct {
		name      string
		xp        int
		level     int
		xpForNext int
		progress  float64
	}{
		{name: "zero", xp: 0, level: 1, xpForNext: 100, progress: 0},
		{name: "negative treated as zero", xp: -40, level: 1, xpForNext: 100, progress: 0},
		{name: "mid level one", xp: 50, level: 1, xpForNext: 50, progress: 50},
		{name: "exact threshold", xp: 250, level: 3, xpForNext: 250, progress: 0},
		{name: "max threshold", xp: MaxLevelXP(), level: 10, xpForNext: 0, progress: 100},
		{name: "beyond max", xp: MaxLevelXP() * 3, level: 10, xpForNext: 0, progress: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lvl := LevelFromXP(tt.xp)
			assert.Equal(t, tt.level, lvl.Level)
			assert.Equal(t, tt.xpForNext, lvl.XPForNext)
			assert.InDelta(t, tt.progress, lvl.Progress, 1e-9)
			assert.NotEmpty(t, lvl.Title)
		})
	}
}

func TestLevelFromXP_ProgressBounded(t *testing.T) {
	for xp := 0; xp <= MaxLevelXP()+500; xp += 7 {
		p := LevelFromXP(xp).Progress
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
	}
}
