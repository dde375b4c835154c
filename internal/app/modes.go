package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/stablewatch/internal/server"
	"github.com/alanyoungcy/stablewatch/internal/server/handler"
	"github.com/alanyoungcy/stablewatch/internal/server/ws"
)

// shutdownGrace is how long in-flight HTTP requests get to finish once the
// root context is cancelled.
const shutdownGrace = 10 * time.Second

// ServerMode runs the HTTP/WebSocket API server until the context is
// cancelled. Reports are served on demand via /api/analyze/{ticker}, history
// comes from Postgres, and completed reports are broadcast to WebSocket
// clients through the Redis signal bus.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode",
		slog.Int("port", a.cfg.Server.Port),
	)

	hub := ws.NewHub(deps.SignalBus, a.cfg.Analysis.ReportChannel, a.logger)

	srv := server.NewServer(
		server.Config{
			Port:            a.cfg.Server.Port,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
			APIKey:          a.cfg.Server.APIKey,
			RateLimit:       a.cfg.Server.RateLimit,
			RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Reports: handler.NewReportHandler(deps.Analysis, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown", slog.String("error", err.Error()))
		}
		return gctx.Err()
	})

	return g.Wait()
}

// AnalyzeMode runs a single risk analysis for the configured ticker, prints
// the report as indented JSON to stdout, and exits.
func (a *App) AnalyzeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting analyze mode",
		slog.String("ticker", a.cfg.Ticker),
	)

	report, err := deps.Analysis.GetRiskReport(ctx, a.cfg.Ticker)
	if err != nil {
		return fmt.Errorf("analyze %q: %w", a.cfg.Ticker, err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))

	a.logger.InfoContext(ctx, "analysis complete",
		slog.String("ticker", report.CoinInfo.Symbol),
		slog.Float64("total_score", report.TotalScore),
	)
	return nil
}
