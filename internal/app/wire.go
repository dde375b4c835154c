package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/stablewatch/internal/audit"
	"github.com/alanyoungcy/stablewatch/internal/cache/redis"
	"github.com/alanyoungcy/stablewatch/internal/config"
	"github.com/alanyoungcy/stablewatch/internal/domain"
	"github.com/alanyoungcy/stablewatch/internal/platform/coingecko"
	"github.com/alanyoungcy/stablewatch/internal/platform/defillama"
	"github.com/alanyoungcy/stablewatch/internal/platform/github"
	"github.com/alanyoungcy/stablewatch/internal/platform/website"
	"github.com/alanyoungcy/stablewatch/internal/resolver"
	"github.com/alanyoungcy/stablewatch/internal/service"
	"github.com/alanyoungcy/stablewatch/internal/store/postgres"
)

// Dependencies bundles every dependency that the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	Analysis *service.AnalysisService

	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus
	History     domain.ReportHistoryStore
}

// needsPostgres returns true for modes that persist report history.
func needsPostgres(mode string) bool {
	return mode == "server"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	mode := strings.ToLower(cfg.Mode)

	// --- PostgreSQL (only for modes that persist history) ---
	var history domain.ReportHistoryStore
	if needsPostgres(mode) {
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
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		history = postgres.NewReportStore(pgClient.Pool())
	}
	deps.History = history

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
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	caches := service.Caches{
		Reports:   redis.NewReportCache(redisClient, cfg.Cache.ReportTTL.Duration),
		Coins:     redis.NewCoinCache(redisClient, cfg.Cache.CatalogueTTL.Duration),
		Peg:       redis.NewPegCache(redisClient, cfg.Cache.PegTTL.Duration),
		Liquidity: redis.NewLiquidityCache(redisClient, cfg.Cache.LiquidityTTL.Duration),
		Audits:    redis.NewAuditCache(redisClient, cfg.Cache.AuditTTL.Duration),
	}
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- Upstream providers ---
	market := coingecko.New(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey, cfg.CoinGecko.Timeout.Duration)
	liquidity := defillama.New(cfg.DefiLlama.BaseURL, cfg.DefiLlama.Timeout.Duration)
	codeHost := github.New(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.Timeout.Duration)
	analyzer := website.New(cfg.Website.Timeout.Duration)

	// --- Analysis service ---
	deps.Analysis = service.NewAnalysisService(
		market,
		liquidity,
		codeHost,
		analyzer,
		resolver.New(resolver.DefaultTables()),
		audit.NewExtractor(audit.KnownFirms, logger),
		caches,
		history,
		deps.SignalBus,
		service.AnalysisConfig{
			PriceDays:     cfg.Analysis.PriceDays,
			FetchTimeout:  cfg.Analysis.FetchTimeout.Duration,
			ReportChannel: cfg.Analysis.ReportChannel,
		},
		logger,
	)

	return deps, cleanup, nil
}
