package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/history"
)

// StakePerAnswer seeds the total market-cap series for every opinion.
const StakePerAnswer = 1.0

// HistorySeries is a chart series with its summary.
type HistorySeries struct {
	Points []history.Point `json:"points"`
	Stats  history.Stats   `json:"stats"`
	// Fallback marks a flat series served because events were unavailable.
	Fallback bool `json:"fallback"`
}

// HistoryOptions tunes series reconstruction.
type HistoryOptions struct {
	FeeRate float64
	Spacing time.Duration
}

// HistoryService reconstructs price and market-cap series from events.
type HistoryService struct {
	opinions domain.OpinionStore
	events   domain.TradeEventStore
	opts     HistoryOptions
	now      func() time.Time
	logger   *slog.Logger
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(opinions domain.OpinionStore, events domain.TradeEventStore, opts HistoryOptions, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		opinions: opinions,
		events:   events,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
	}
}

// PriceHistory returns the answer price series of one opinion. Only an
// invalid or unknown id is an error; data problems yield a flat fallback.
func (s *HistoryService) PriceHistory(ctx context.Context, id uint64) (HistorySeries, error) {
	if id == 0 {
		return HistorySeries{}, fmt.Errorf("history_service: id 0: %w", domain.ErrInvalidInput)
	}
	opts := s.options(history.OpeningPrice, 0)

	o, err := s.opinions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return HistorySeries{}, fmt.Errorf("history_service: opinion %d: %w", id, err)
		}
		s.logger.WarnContext(ctx, "history_service: opinion unavailable",
			slog.Uint64("opinion_id", id),
			slog.String("error", err.Error()),
		)
		opts.Current = opts.Opening
		return s.fallback(opts), nil
	}
	opts.Current = o.NextPrice

	events, err := s.events.ListByOpinion(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "history_service: events unavailable",
			slog.Uint64("opinion_id", id),
			slog.String("error", err.Error()),
		)
		return s.fallback(opts), nil
	}
	return s.reduce(ctx, events, opts), nil
}

// TotalMarketCapHistory returns the summed market-cap series across all
// opinions. It never fails.
func (s *HistoryService) TotalMarketCapHistory(ctx context.Context) HistorySeries {
	opinions, _, err := s.opinions.List(ctx, domain.ListOpts{})
	if err != nil {
		s.logger.WarnContext(ctx, "history_service: opinions unavailable", slog.String("error", err.Error()))
		return s.fallback(s.options(0, 0))
	}

	var current float64
	for _, o := range opinions {
		current += o.TotalVolume
	}
	opts := s.options(history.Seed(len(opinions), StakePerAnswer), current)

	events, err := s.events.ListAll(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "history_service: events unavailable", slog.String("error", err.Error()))
		return s.fallback(opts)
	}
	return s.reduce(ctx, events, opts)
}

func (s *HistoryService) reduce(ctx context.Context, events []domain.TradeEvent, opts history.Options) HistorySeries {
	buys, sells := history.Partition(events)
	points, err := history.Reduce(buys, sells, opts)
	if err != nil {
		s.logger.WarnContext(ctx, "history_service: reduce failed", slog.String("error", err.Error()))
		return s.fallback(opts)
	}
	return HistorySeries{
		Points: points,
		Stats:  history.Summarize(points, opts.Opening),
	}
}

func (s *HistoryService) fallback(opts history.Options) HistorySeries {
	points := history.Fallback(opts)
	return HistorySeries{
		Points:   points,
		Stats:    history.Summarize(points, opts.Current),
		Fallback: true,
	}
}

func (s *HistoryService) options(opening, current float64) history.Options {
	opts := history.DefaultOptions(current, s.now())
	opts.Opening = opening
	if s.opts.FeeRate > 0 {
		opts.FeeRate = s.opts.FeeRate
	}
	if s.opts.Spacing > 0 {
		opts.Spacing = s.opts.Spacing
	}
	return opts
}
