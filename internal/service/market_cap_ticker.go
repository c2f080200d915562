package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/animate"
	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
)

// DefaultTickerDuration is how long the displayed market cap takes to
// settle on a new value.
const DefaultTickerDuration = time.Second

// TickerFrame is one interpolated market-cap value.
type TickerFrame struct {
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
	Final  bool    `json:"final"`
}

// ViewSource provides decorated opinions.
type ViewSource interface {
	Views(ctx context.Context) ([]domain.OpinionView, error)
}

// MarketCapTicker animates the total market cap toward the latest indexed
// value whenever the indexer announces a refresh. A new target cancels the
// running animation and continues from the value last shown.
type MarketCapTicker struct {
	views    ViewSource
	bus      domain.SignalBus
	sched    animate.Scheduler
	duration time.Duration
	sink     func(TickerFrame)
	logger   *slog.Logger

	mu     sync.Mutex
	tween  *animate.Handle
	target float64
	shown  atomic.Uint64
}

// NewMarketCapTicker creates a ticker. sink receives every frame and must
// not block.
func NewMarketCapTicker(
	views ViewSource,
	bus domain.SignalBus,
	sched animate.Scheduler,
	duration time.Duration,
	sink func(TickerFrame),
	logger *slog.Logger,
) *MarketCapTicker {
	if duration <= 0 {
		duration = DefaultTickerDuration
	}
	return &MarketCapTicker{
		views:    views,
		bus:      bus,
		sched:    sched,
		duration: duration,
		sink:     sink,
		logger:   logger,
	}
}

// Run refreshes once and then on every refresh event until ctx is done.
func (t *MarketCapTicker) Run(ctx context.Context) error {
	t.Refresh(ctx)

	events, err := t.bus.Subscribe(ctx, domain.ChannelOpinions)
	if err != nil {
		return fmt.Errorf("ticker: subscribe: %w", err)
	}
	defer t.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			t.Refresh(ctx)
		}
	}
}

// Refresh recomputes the total and retargets the animation.
func (t *MarketCapTicker) Refresh(ctx context.Context) {
	views, err := t.views.Views(ctx)
	if err != nil {
		t.logger.WarnContext(ctx, "ticker: views unavailable", slog.String("error", err.Error()))
		return
	}
	t.Retarget(TotalMarketCap(views))
}

// Retarget animates from the value currently shown to target.
func (t *MarketCapTicker) Retarget(target float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tween != nil {
		t.tween.Cancel()
	}
	t.target = target
	from := t.Value()
	t.tween = animate.Tween(t.sched, from, target, t.duration, animate.EaseOutCubic, func(v float64) {
		t.shown.Store(math.Float64bits(v))
		if t.sink != nil {
			t.sink(TickerFrame{Value: v, Target: target, Final: v == target})
		}
	})
}

// Value is the market cap currently shown.
func (t *MarketCapTicker) Value() float64 {
	return math.Float64frombits(t.shown.Load())
}

// Target is the latest computed market cap.
func (t *MarketCapTicker) Target() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

func (t *MarketCapTicker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tween != nil {
		t.tween.Cancel()
	}
}

// TotalMarketCap sums the market cap (total traded volume) of every
// opinion, matching the marketCap sort key.
func TotalMarketCap(views []domain.OpinionView) float64 {
	var total float64
	for _, v := range views {
		total += v.TotalVolume
	}
	return total
}
