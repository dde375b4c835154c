package domain

import (
	"context"
	"time"
)

// ReportCache stores fully assembled RiskReports keyed by lowercased ticker.
type ReportCache interface {
	Set(ctx context.Context, ticker string, report RiskReport) error
	Get(ctx context.Context, ticker string) (RiskReport, error)
}

// CoinCache stores the provider coin catalogue and resolved native candidates.
type CoinCache interface {
	SetCatalogue(ctx context.Context, coins []CoinCandidate) error
	GetCatalogue(ctx context.Context) ([]CoinCandidate, error)
	SetResolved(ctx context.Context, ticker string, coin CoinCandidate) error
	GetResolved(ctx context.Context, ticker string) (CoinCandidate, error)
}

// PegCache stores extracted peg events keyed by coin ID.
type PegCache interface {
	Set(ctx context.Context, coinID string, events []PegEvent) error
	Get(ctx context.Context, coinID string) ([]PegEvent, error)
}

// LiquidityCache stores per-chain liquidity distributions keyed by ticker.
type LiquidityCache interface {
	Set(ctx context.Context, ticker string, data LiquidityData) error
	Get(ctx context.Context, ticker string) (LiquidityData, error)
}

// AuditCache stores mined audit histories keyed by repository URL.
type AuditCache interface {
	Set(ctx context.Context, repoURL string, records []AuditRecord) error
	Get(ctx context.Context, repoURL string) ([]AuditRecord, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out of completed analyses to live
// subscribers (the WebSocket hub).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
