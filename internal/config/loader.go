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
// built-in defaults, applies STABLEWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STABLEWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── CoinGecko ──
	setStr(&cfg.CoinGecko.BaseURL, "STABLEWATCH_COINGECKO_BASE_URL")
	setStr(&cfg.CoinGecko.APIKey, "STABLEWATCH_COINGECKO_API_KEY")
	setDuration(&cfg.CoinGecko.Timeout, "STABLEWATCH_COINGECKO_TIMEOUT")

	// ── DefiLlama ──
	setStr(&cfg.DefiLlama.BaseURL, "STABLEWATCH_DEFILLAMA_BASE_URL")
	setDuration(&cfg.DefiLlama.Timeout, "STABLEWATCH_DEFILLAMA_TIMEOUT")

	// ── GitHub ──
	setStr(&cfg.GitHub.BaseURL, "STABLEWATCH_GITHUB_BASE_URL")
	setStr(&cfg.GitHub.Token, "STABLEWATCH_GITHUB_TOKEN")
	setDuration(&cfg.GitHub.Timeout, "STABLEWATCH_GITHUB_TIMEOUT")

	// ── Website ──
	setDuration(&cfg.Website.Timeout, "STABLEWATCH_WEBSITE_TIMEOUT")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "STABLEWATCH_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STABLEWATCH_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STABLEWATCH_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STABLEWATCH_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STABLEWATCH_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STABLEWATCH_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STABLEWATCH_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STABLEWATCH_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STABLEWATCH_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STABLEWATCH_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STABLEWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STABLEWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STABLEWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STABLEWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STABLEWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STABLEWATCH_REDIS_TLS_ENABLED")

	// ── Cache ──
	setDuration(&cfg.Cache.ReportTTL, "STABLEWATCH_CACHE_REPORT_TTL")
	setDuration(&cfg.Cache.CatalogueTTL, "STABLEWATCH_CACHE_CATALOGUE_TTL")
	setDuration(&cfg.Cache.PegTTL, "STABLEWATCH_CACHE_PEG_TTL")
	setDuration(&cfg.Cache.LiquidityTTL, "STABLEWATCH_CACHE_LIQUIDITY_TTL")
	setDuration(&cfg.Cache.AuditTTL, "STABLEWATCH_CACHE_AUDIT_TTL")

	// ── Analysis ──
	setInt(&cfg.Analysis.PriceDays, "STABLEWATCH_ANALYSIS_PRICE_DAYS")
	setDuration(&cfg.Analysis.FetchTimeout, "STABLEWATCH_ANALYSIS_FETCH_TIMEOUT")
	setStr(&cfg.Analysis.ReportChannel, "STABLEWATCH_ANALYSIS_REPORT_CHANNEL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "STABLEWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "STABLEWATCH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "STABLEWATCH_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "STABLEWATCH_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "STABLEWATCH_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "STABLEWATCH_SERVER_RATE_LIMIT_WINDOW")

	// ── Top-level ──
	setStr(&cfg.Mode, "STABLEWATCH_MODE")
	setStr(&cfg.Ticker, "STABLEWATCH_TICKER")
	setStr(&cfg.LogLevel, "STABLEWATCH_LOG_LEVEL")
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
