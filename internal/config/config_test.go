package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Chain.RPCURL = "https://bsc.example/rpc"
	cfg.Chain.ContractAddress = "0x0000000000000000000000000000000000000001"
	return cfg
}

func TestDefaultsValidateForServerMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "server"
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid full", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "trade" }, "unknown mode"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log_level"},
		{"index needs rpc", func(c *Config) { c.Chain.RPCURL = "" }, "chain: rpc_url"},
		{"server skips chain", func(c *Config) { c.Mode = "server"; c.Chain.RPCURL = "" }, ""},
		{"bad cron with bucket", func(c *Config) {
			c.S3.Bucket = "archive"
			c.Indexer.ArchiveCron = "61 * * * *"
		}, "archive_cron"},
		{"bad cron ignored without bucket", func(c *Config) { c.Indexer.ArchiveCron = "nope" }, ""},
		{"pool bounds", func(c *Config) { c.Postgres.PoolMinConns = 20 }, "pool_min_conns must not exceed"},
		{"fee rate", func(c *Config) { c.History.FeeRate = 1.5 }, "fee_rate"},
		{"port", func(c *Config) { c.Server.Port = 0 }, "server: port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "omc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "index"

[indexer]
interval = "10s"

[server]
port = 9000
`), 0o600))

	t.Setenv("OMC_SERVER_PORT", "9100")
	t.Setenv("OMC_SERVER_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("OMC_CHAIN_START_BLOCK", "123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "index", cfg.Mode)
	assert.Equal(t, 10*time.Second, cfg.Indexer.Interval.Duration)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, uint64(123), cfg.Chain.StartBlock)
	assert.Equal(t, 0.02, cfg.History.FeeRate)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "pw"
	cfg.S3.SecretKey = "sk"
	cfg.Server.APIKey = "key"

	out := RedactedConfig(&cfg)
	assert.Equal(t, redacted, out.Postgres.Password)
	assert.Equal(t, redacted, out.S3.SecretKey)
	assert.Equal(t, redacted, out.Server.APIKey)
	assert.Equal(t, redacted, out.Chain.RPCURL)
	assert.Empty(t, out.Redis.Password)
	assert.Equal(t, "pw", cfg.Postgres.Password)

	out.Server.CORSOrigins[0] = "changed"
	assert.NotEqual(t, "changed", cfg.Server.CORSOrigins[0])
}
