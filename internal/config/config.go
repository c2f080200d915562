// Package config defines the top-level configuration for the aggregation
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/pipeline"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by OMC_* environment variables.
type Config struct {
	Chain    ChainConfig    `toml:"chain"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Indexer  IndexerConfig  `toml:"indexer"`
	Market   MarketConfig   `toml:"market"`
	History  HistoryConfig  `toml:"history"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ChainConfig locates the opinion contract.
type ChainConfig struct {
	RPCURL          string   `toml:"rpc_url"`
	ContractAddress string   `toml:"contract_address"`
	ChainID         int      `toml:"chain_id"`
	StartBlock      uint64   `toml:"start_block"`
	LogStep         uint64   `toml:"log_step"`
	RetryDelay      duration `toml:"retry_delay"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	ViewsTTL   duration `toml:"views_ttl"`
}

// S3Config holds S3-compatible object storage parameters. An empty bucket
// disables archiving.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// IndexerConfig controls the chain indexer and the archive schedule.
type IndexerConfig struct {
	Interval         duration `toml:"interval"`
	MaxBlocks        uint64   `toml:"max_blocks"`
	Concurrency      int      `toml:"concurrency"`
	LockTTL          duration `toml:"lock_ttl"`
	ArchiveCron      string   `toml:"archive_cron"`
	ArchiveRetention uint64   `toml:"archive_retention_blocks"`
	ArchiveChunk     uint64   `toml:"archive_chunk_blocks"`
	ArchivePrune     bool     `toml:"archive_prune"`
}

// MarketConfig tunes status derivation and listing.
type MarketConfig struct {
	NewWindow           duration `toml:"new_window"`
	HotWindow           duration `toml:"hot_window"`
	HotVolume           float64  `toml:"hot_volume"`
	InactiveAfter       duration `toml:"inactive_after"`
	TrendingVolume      float64  `toml:"trending_volume"`
	ServerPageThreshold int      `toml:"server_page_threshold"`
	TickerDuration      duration `toml:"ticker_duration"`
}

// HistoryConfig tunes history reconstruction and profit estimates.
type HistoryConfig struct {
	FeeRate        float64  `toml:"fee_rate"`
	CreatorFeeRate float64  `toml:"creator_fee_rate"`
	Spacing        duration `toml:"spacing"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			ChainID:    56,
			LogStep:    10_000,
			RetryDelay: duration{2 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "opinionmarketcap",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			ViewsTTL:   duration{2 * time.Minute},
		},
		S3: S3Config{
			Region:         "us-east-1",
			ForcePathStyle: true,
		},
		Indexer: IndexerConfig{
			Interval:         duration{30 * time.Second},
			MaxBlocks:        50_000,
			Concurrency:      8,
			LockTTL:          duration{2 * time.Minute},
			ArchiveCron:      "0 3 * * *",
			ArchiveRetention: 2_000_000,
			ArchiveChunk:     50_000,
		},
		Market: MarketConfig{
			NewWindow:           duration{24 * time.Hour},
			HotWindow:           duration{time.Hour},
			HotVolume:           100,
			InactiveAfter:       duration{7 * 24 * time.Hour},
			TrendingVolume:      100,
			ServerPageThreshold: 5_000,
			TickerDuration:      duration{time.Second},
		},
		History: HistoryConfig{
			FeeRate:        0.02,
			CreatorFeeRate: 0.03,
			Spacing:        duration{time.Minute},
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"index":  true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Indexes reports whether the mode runs the chain indexer.
func (c *Config) Indexes() bool {
	m := strings.ToLower(c.Mode)
	return m == "index" || m == "full"
}

// Serves reports whether the mode runs the HTTP server.
func (c *Config) Serves() bool {
	m := strings.ToLower(c.Mode)
	return m == "server" || m == "full"
}

// ArchiveEnabled reports whether cold storage is configured.
func (c *Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.S3.Bucket) != ""
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, index, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain access is needed to index; the server only reads the stores.
	if c.Indexes() {
		if c.Chain.RPCURL == "" {
			errs = append(errs, "chain: rpc_url must not be empty for mode "+c.Mode)
		}
		if c.Chain.ContractAddress == "" {
			errs = append(errs, "chain: contract_address must not be empty for mode "+c.Mode)
		}
		if c.Indexer.Interval.Duration <= 0 {
			errs = append(errs, "indexer: interval must be > 0")
		}
		if c.ArchiveEnabled() {
			if err := pipeline.ValidateCron(c.Indexer.ArchiveCron); err != nil {
				errs = append(errs, fmt.Sprintf("indexer: archive_cron: %v", err))
			}
			if c.Indexer.ArchiveChunk == 0 {
				errs = append(errs, "indexer: archive_chunk_blocks must be > 0")
			}
		}
	}

	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.ArchiveEnabled() && c.S3.Endpoint == "" && c.S3.Region == "" {
		errs = append(errs, "s3: endpoint or region must be set when bucket is set")
	}

	if c.History.FeeRate < 0 || c.History.FeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("history: fee_rate must be in [0, 1), got %g", c.History.FeeRate))
	}
	if c.History.CreatorFeeRate < 0 || c.History.CreatorFeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("history: creator_fee_rate must be in [0, 1), got %g", c.History.CreatorFeeRate))
	}

	if c.Serves() {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
