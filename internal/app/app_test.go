package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/opinionmarketcap/internal/config"
	"github.com/alanyoungcy/opinionmarketcap/internal/market"
)

func TestMarketThresholdsOverridesOnlySetFields(t *testing.T) {
	cfg := config.Defaults()
	cfg.Market.HotVolume = 250
	cfg.Market.TrendingVolume = 0

	th := marketThresholds(cfg.Market)
	def := market.DefaultThresholds()
	assert.Equal(t, 250.0, th.HotVolume)
	assert.Equal(t, def.TrendingVolume, th.TrendingVolume)
	assert.Equal(t, 24*time.Hour, th.NewWindow)
}

func TestMarketCapJSON(t *testing.T) {
	var out struct {
		Value  float64 `json:"value"`
		Target float64 `json:"target"`
	}
	require.NoError(t, json.Unmarshal(marketCapJSON(12.3456789, 1e21), &out))
	assert.InDelta(t, 12.345679, out.Value, 1e-9)
	assert.InDelta(t, 1e21, out.Target, 1)
}

func TestRunRejectsUnknownModeBeforeWiring(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "trade"
	a := New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer a.Close()

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported mode")
}

func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, ignoreCanceled(context.Canceled))
	assert.NoError(t, ignoreCanceled(nil))
}
