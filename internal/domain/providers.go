package domain

import "context"

// MarketDataProvider is the market-data adapter (coin catalogue, per-coin
// detail, daily price history).
type MarketDataProvider interface {
	ListCandidates(ctx context.Context) ([]CoinCandidate, error)
	FetchDetail(ctx context.Context, id string) (CoinDetail, error)
	FetchDailyPrices(ctx context.Context, id string, days int) ([]PriceSample, error)
}

// LiquidityProvider is the on-chain liquidity aggregator adapter.
type LiquidityProvider interface {
	FetchChainDistribution(ctx context.Context, ticker string) ([]ChainLiquidity, error)
}

// CodeHostProvider is the code-hosting adapter used by the audit extractor
// and the oracle-signal heuristic.
type CodeHostProvider interface {
	ListRepoFiles(ctx context.Context, repoURL string) ([]RepoFile, error)
	RecentCommitCount(ctx context.Context, repoURL string) (int, error)
}

// WebsiteAnalyzer scrapes structured transparency signals from the issuer's
// website.
type WebsiteAnalyzer interface {
	FetchSignals(ctx context.Context, url string) (TransparencySignals, error)
}
