package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies OMC_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known OMC_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "OMC_CHAIN_RPC_URL")
	setStr(&cfg.Chain.ContractAddress, "OMC_CHAIN_CONTRACT_ADDRESS")
	setInt(&cfg.Chain.ChainID, "OMC_CHAIN_CHAIN_ID")
	setUint64(&cfg.Chain.StartBlock, "OMC_CHAIN_START_BLOCK")
	setUint64(&cfg.Chain.LogStep, "OMC_CHAIN_LOG_STEP")
	setDuration(&cfg.Chain.RetryDelay, "OMC_CHAIN_RETRY_DELAY")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "OMC_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // platform alias
	setStr(&cfg.Postgres.Host, "OMC_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "OMC_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "OMC_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "OMC_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "OMC_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "OMC_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "OMC_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "OMC_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "OMC_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "OMC_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "OMC_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "OMC_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "OMC_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "OMC_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "OMC_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.ViewsTTL, "OMC_REDIS_VIEWS_TTL")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "OMC_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "OMC_S3_REGION")
	setStr(&cfg.S3.Bucket, "OMC_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "OMC_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "OMC_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "OMC_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "OMC_S3_FORCE_PATH_STYLE")

	// ── Indexer ──
	setDuration(&cfg.Indexer.Interval, "OMC_INDEXER_INTERVAL")
	setUint64(&cfg.Indexer.MaxBlocks, "OMC_INDEXER_MAX_BLOCKS")
	setInt(&cfg.Indexer.Concurrency, "OMC_INDEXER_CONCURRENCY")
	setDuration(&cfg.Indexer.LockTTL, "OMC_INDEXER_LOCK_TTL")
	setStr(&cfg.Indexer.ArchiveCron, "OMC_INDEXER_ARCHIVE_CRON")
	setUint64(&cfg.Indexer.ArchiveRetention, "OMC_INDEXER_ARCHIVE_RETENTION_BLOCKS")
	setUint64(&cfg.Indexer.ArchiveChunk, "OMC_INDEXER_ARCHIVE_CHUNK_BLOCKS")
	setBool(&cfg.Indexer.ArchivePrune, "OMC_INDEXER_ARCHIVE_PRUNE")

	// ── Market ──
	setFloat64(&cfg.Market.HotVolume, "OMC_MARKET_HOT_VOLUME")
	setFloat64(&cfg.Market.TrendingVolume, "OMC_MARKET_TRENDING_VOLUME")
	setInt(&cfg.Market.ServerPageThreshold, "OMC_MARKET_SERVER_PAGE_THRESHOLD")

	// ── History ──
	setFloat64(&cfg.History.FeeRate, "OMC_HISTORY_FEE_RATE")
	setFloat64(&cfg.History.CreatorFeeRate, "OMC_HISTORY_CREATOR_FEE_RATE")

	// ── Server ──
	setInt(&cfg.Server.Port, "OMC_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "OMC_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "OMC_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "OMC_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "OMC_SERVER_RATE_WINDOW")

	// ── Top-level ──
	setStr(&cfg.Mode, "OMC_MODE")
	setStr(&cfg.LogLevel, "OMC_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
