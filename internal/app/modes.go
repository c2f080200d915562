package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/opinionmarketcap/internal/animate"
	"github.com/alanyoungcy/opinionmarketcap/internal/chain"
	"github.com/alanyoungcy/opinionmarketcap/internal/config"
	"github.com/alanyoungcy/opinionmarketcap/internal/market"
	"github.com/alanyoungcy/opinionmarketcap/internal/pipeline"
	"github.com/alanyoungcy/opinionmarketcap/internal/server"
	"github.com/alanyoungcy/opinionmarketcap/internal/server/handler"
	"github.com/alanyoungcy/opinionmarketcap/internal/server/ws"
	"github.com/alanyoungcy/opinionmarketcap/internal/service"
)

// ServerMode serves the API from the stores without indexing.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return ignoreCanceled(g.Wait())
}

// IndexMode runs the chain indexer and the archive schedule only.
func (a *App) IndexMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting index mode")
	g, ctx := errgroup.WithContext(ctx)
	a.startPipeline(ctx, g, a.newIndexer(deps), deps)
	return ignoreCanceled(g.Wait())
}

// FullMode indexes and serves in one process. The indexer can be woken early
// through POST /api/indexer/trigger.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	g, ctx := errgroup.WithContext(ctx)
	ix := a.newIndexer(deps)
	a.startPipeline(ctx, g, ix, deps)
	a.startHTTPServer(ctx, g, deps, ix.Trigger())
	return ignoreCanceled(g.Wait())
}

func (a *App) newIndexer(deps *Dependencies) *pipeline.Indexer {
	return pipeline.NewIndexer(
		deps.Chain,
		deps.OpinionStore,
		deps.TradeEventStore,
		deps.PoolStore,
		deps.OpinionCache,
		deps.SignalBus,
		deps.LockManager,
		pipeline.IndexerOptions{
			StartBlock:  a.cfg.Chain.StartBlock,
			MaxBlocks:   a.cfg.Indexer.MaxBlocks,
			LockTTL:     a.cfg.Indexer.LockTTL.Duration,
			Concurrency: a.cfg.Indexer.Concurrency,
		},
		a.logger,
	)
}

func (a *App) startPipeline(ctx context.Context, g *errgroup.Group, ix *pipeline.Indexer, deps *Dependencies) {
	var archiver *pipeline.Archiver
	if deps.Archiver != nil {
		archiver = pipeline.NewArchiver(deps.Archiver, a.logger)
	}
	orch := pipeline.NewOrchestrator(ix, archiver, a.cfg.Indexer.Interval.Duration, a.cfg.Indexer.ArchiveCron, a.logger)
	g.Go(func() error {
		return orch.Run(ctx)
	})
}

// startHTTPServer builds the services, the WebSocket hub and the market-cap
// ticker and serves them until ctx is done. triggerCh may be nil.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, triggerCh chan<- struct{}) {
	opinionSvc := service.NewOpinionService(
		deps.OpinionStore,
		deps.OpinionCache,
		marketThresholds(a.cfg.Market),
		a.cfg.Market.ServerPageThreshold,
		a.logger,
	)
	historySvc := service.NewHistoryService(deps.OpinionStore, deps.TradeEventStore, service.HistoryOptions{
		FeeRate: a.cfg.History.FeeRate,
		Spacing: a.cfg.History.Spacing.Duration,
	}, a.logger)
	badgeSvc := service.NewBadgeService(deps.UserStats, deps.KV, a.logger)
	userSvc := service.NewUserService(deps.KV, service.DefaultOnboardingSteps)
	poolSvc := service.NewPoolService(deps.PoolStore)

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		AllowedOrigins: a.cfg.Server.CORSOrigins,
		StartedAt:      time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	ticker := service.NewMarketCapTicker(
		opinionSvc,
		deps.SignalBus,
		animate.NewTickerScheduler(0),
		a.cfg.Market.TickerDuration.Duration,
		func(f service.TickerFrame) { hub.Publish(ws.ChannelMarketCap, f) },
		a.logger,
	)
	g.Go(func() error {
		// The ticker is cosmetic; losing it must not stop the API.
		if err := ticker.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.WarnContext(ctx, "app: market-cap ticker stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	var indexerH *handler.IndexerHandler
	if triggerCh != nil {
		indexerH = handler.NewIndexerHandler(triggerCh, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:   handler.NewHealthHandler(deps.HealthChecks, a.logger),
		Opinions: handler.NewOpinionHandler(opinionSvc, a.logger),
		History:  handler.NewHistoryHandler(historySvc, a.logger),
		Users:    handler.NewUserHandler(badgeSvc, userSvc, a.logger),
		Pools:    handler.NewPoolHandler(poolSvc, a.logger),
		Indexer:  indexerH,
		MarketCap: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write(marketCapJSON(ticker.Value(), ticker.Target()))
		},
	}, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

func marketThresholds(c config.MarketConfig) market.Thresholds {
	th := market.DefaultThresholds()
	if c.NewWindow.Duration > 0 {
		th.NewWindow = c.NewWindow.Duration
	}
	if c.HotWindow.Duration > 0 {
		th.HotWindow = c.HotWindow.Duration
	}
	if c.HotVolume > 0 {
		th.HotVolume = c.HotVolume
	}
	if c.InactiveAfter.Duration > 0 {
		th.InactiveAfter = c.InactiveAfter.Duration
	}
	if c.TrendingVolume > 0 {
		th.TrendingVolume = c.TrendingVolume
	}
	return th
}

// marketCapJSON renders the displayed and target totals with USDC precision.
func marketCapJSON(value, target float64) []byte {
	return []byte(`{"value":` + chain.FormatUSDC(value) + `,"target":` + chain.FormatUSDC(target) + `}`)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		slog.Default().Error("app: stopped with error", slog.String("error", err.Error()))
	}
	return err
}
