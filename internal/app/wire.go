package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/opinionmarketcap/internal/blob/s3"
	"github.com/alanyoungcy/opinionmarketcap/internal/cache/redis"
	"github.com/alanyoungcy/opinionmarketcap/internal/chain"
	"github.com/alanyoungcy/opinionmarketcap/internal/config"
	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/server/handler"
	"github.com/alanyoungcy/opinionmarketcap/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	OpinionStore    domain.OpinionStore
	TradeEventStore domain.TradeEventStore
	PoolStore       domain.PoolStore
	UserStats       domain.UserStatsProvider

	// Caches
	OpinionCache domain.OpinionCache
	KV           domain.KVStore
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	SignalBus    domain.SignalBus

	// Chain is nil unless the mode indexes.
	Chain domain.ChainReader

	// Archiver is nil unless a bucket is configured and the mode indexes.
	Archiver *s3blob.Archiver

	// HealthChecks are pinged by GET /api/health.
	HealthChecks map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(what string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %s: %w", what, err)
	}

	deps := &Dependencies{HealthChecks: map[string]handler.Pinger{}}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		return fail("postgres", err)
	}
	closers = append(closers, pgClient.Close)
	deps.HealthChecks["postgres"] = pgClient

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			return fail("postgres migrations", err)
		}
	}

	pool := pgClient.Pool()
	deps.OpinionStore = postgres.NewOpinionStore(pool)
	deps.TradeEventStore = postgres.NewTradeEventStore(pool)
	deps.PoolStore = postgres.NewPoolStore(pool)
	deps.UserStats = postgres.NewUserStatsStore(pool, cfg.History.CreatorFeeRate)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		return fail("redis", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.HealthChecks["redis"] = redisClient

	deps.OpinionCache = redis.NewOpinionCache(redisClient, cfg.Redis.ViewsTTL.Duration)
	deps.KV = redis.NewKVStore(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	if !cfg.Indexes() {
		return deps, cleanup, nil
	}

	// --- Chain ---
	chainClient, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.ContractAddress, chain.Options{
		StartBlock: cfg.Chain.StartBlock,
		LogStep:    cfg.Chain.LogStep,
		RetryDelay: cfg.Chain.RetryDelay.Duration,
	}, logger)
	if err != nil {
		return fail("chain", err)
	}
	closers = append(closers, chainClient.Close)
	deps.Chain = chainClient

	// --- S3 cold archive (optional) ---
	if cfg.ArchiveEnabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail("s3", err)
		}
		deps.HealthChecks["s3"] = handler.PingFunc(s3Client.Health)
		deps.Archiver = s3blob.NewArchiver(
			deps.TradeEventStore,
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			s3blob.ArchiveOptions{
				RetentionBlocks: cfg.Indexer.ArchiveRetention,
				ChunkBlocks:     cfg.Indexer.ArchiveChunk,
				Prune:           cfg.Indexer.ArchivePrune,
			},
			logger,
		)
	}

	return deps, cleanup, nil
}
