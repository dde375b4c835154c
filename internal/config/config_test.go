package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestDefaults_UpstreamTimeoutsAreTight(t *testing.T) {
	cfg := Defaults()

	// Slow upstreams must degrade an analysis, not stall it; every fetch
	// deadline stays within single-digit-ish seconds.
	max := 10 * time.Second
	assert.LessOrEqual(t, cfg.CoinGecko.Timeout.Duration, max)
	assert.LessOrEqual(t, cfg.DefiLlama.Timeout.Duration, max)
	assert.LessOrEqual(t, cfg.GitHub.Timeout.Duration, max)
	assert.LessOrEqual(t, cfg.Website.Timeout.Duration, max)
	assert.LessOrEqual(t, cfg.Analysis.FetchTimeout.Duration, max)
	assert.Positive(t, cfg.Analysis.FetchTimeout.Duration)
}

func TestValidate_AnalyzeModeRequiresTicker(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "analyze"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticker must be set")

	cfg.Ticker = "usdt"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "batch"
	cfg.LogLevel = "verbose"
	cfg.Redis.Addr = ""
	cfg.Analysis.PriceDays = 7

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "price_days")
}

func TestLoad_TOMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "analyze"
ticker = "usdc"

[coingecko]
api_key = "from-file"
timeout = "10s"

[server]
port = 9100
`), 0o600))

	t.Setenv("STABLEWATCH_COINGECKO_API_KEY", "from-env")
	t.Setenv("STABLEWATCH_SERVER_PORT", "9200")
	t.Setenv("STABLEWATCH_CACHE_REPORT_TTL", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "analyze", cfg.Mode)
	assert.Equal(t, "usdc", cfg.Ticker)
	// Env wins over file.
	assert.Equal(t, "from-env", cfg.CoinGecko.APIKey)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.CoinGecko.Timeout.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ReportTTL.Duration)
	// Untouched fields keep defaults.
	assert.Equal(t, "https://stablecoins.llama.fi", cfg.DefiLlama.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.CoinGecko.APIKey = "cg-secret"
	cfg.GitHub.Token = "gh-secret"
	cfg.Redis.Password = "redis-secret"
	cfg.Postgres.Password = "pg-secret"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.CoinGecko.APIKey)
	assert.Equal(t, "***", red.GitHub.Token)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.Postgres.Password)
	// Non-secret values survive.
	assert.Equal(t, cfg.Server.Port, red.Server.Port)
	// Original is untouched.
	assert.Equal(t, "cg-secret", cfg.CoinGecko.APIKey)
}
