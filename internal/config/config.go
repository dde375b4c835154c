// Package config defines the top-level configuration for the stablewatch
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by STABLEWATCH_* environment variables.
type Config struct {
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
	DefiLlama DefiLlamaConfig `toml:"defillama"`
	GitHub    GitHubConfig    `toml:"github"`
	Website   WebsiteConfig   `toml:"website"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	Cache     CacheConfig     `toml:"cache"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Server    ServerConfig    `toml:"server"`
	Mode      string          `toml:"mode"`
	Ticker    string          `toml:"ticker"` // analyze mode only
	LogLevel  string          `toml:"log_level"`
}

// CoinGeckoConfig holds market-data API parameters.
type CoinGeckoConfig struct {
	BaseURL string   `toml:"base_url"`
	APIKey  string   `toml:"api_key"`
	Timeout duration `toml:"timeout"`
}

// DefiLlamaConfig holds liquidity-aggregator API parameters.
type DefiLlamaConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// GitHubConfig holds code-hosting API parameters. Token is optional;
// unauthenticated requests are subject to much stricter rate limits.
type GitHubConfig struct {
	BaseURL string   `toml:"base_url"`
	Token   string   `toml:"token"`
	Timeout duration `toml:"timeout"`
}

// WebsiteConfig holds issuer-website scraping parameters.
type WebsiteConfig struct {
	Timeout duration `toml:"timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters for report history.
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
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// CacheConfig holds the TTLs for each Redis-backed cache.
type CacheConfig struct {
	ReportTTL    duration `toml:"report_ttl"`
	CatalogueTTL duration `toml:"catalogue_ttl"`
	PegTTL       duration `toml:"peg_ttl"`
	LiquidityTTL duration `toml:"liquidity_ttl"`
	AuditTTL     duration `toml:"audit_ttl"`
}

// AnalysisConfig holds analysis-flow parameters.
type AnalysisConfig struct {
	PriceDays     int      `toml:"price_days"`
	FetchTimeout  duration `toml:"fetch_timeout"`
	ReportChannel string   `toml:"report_channel"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
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
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		CoinGecko: CoinGeckoConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
			Timeout: duration{10 * time.Second},
		},
		DefiLlama: DefiLlamaConfig{
			BaseURL: "https://stablecoins.llama.fi",
			Timeout: duration{10 * time.Second},
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
			Timeout: duration{10 * time.Second},
		},
		Website: WebsiteConfig{
			Timeout: duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "stablewatch",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Cache: CacheConfig{
			ReportTTL:    duration{time.Hour},
			CatalogueTTL: duration{24 * time.Hour},
			PegTTL:       duration{24 * time.Hour},
			LiquidityTTL: duration{time.Hour},
			AuditTTL:     duration{time.Hour},
		},
		Analysis: AnalysisConfig{
			PriceDays:     365,
			FetchTimeout:  duration{10 * time.Second},
			ReportChannel: "reports",
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:       60,
			RateLimitWindow: duration{time.Minute},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"analyze": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, analyze)", c.Mode))
	}
	if strings.EqualFold(c.Mode, "analyze") && strings.TrimSpace(c.Ticker) == "" {
		errs = append(errs, "ticker must be set for analyze mode")
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Upstream endpoints
	if c.CoinGecko.BaseURL == "" {
		errs = append(errs, "coingecko: base_url must not be empty")
	}
	if c.DefiLlama.BaseURL == "" {
		errs = append(errs, "defillama: base_url must not be empty")
	}
	if c.GitHub.BaseURL == "" {
		errs = append(errs, "github: base_url must not be empty")
	}

	// Postgres
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

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Cache TTLs
	if c.Cache.ReportTTL.Duration <= 0 {
		errs = append(errs, "cache: report_ttl must be > 0")
	}
	if c.Cache.CatalogueTTL.Duration <= 0 {
		errs = append(errs, "cache: catalogue_ttl must be > 0")
	}

	// Analysis
	if c.Analysis.PriceDays < 30 {
		errs = append(errs, fmt.Sprintf("analysis: price_days must be >= 30, got %d", c.Analysis.PriceDays))
	}
	if c.Analysis.FetchTimeout.Duration <= 0 {
		errs = append(errs, "analysis: fetch_timeout must be > 0")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
