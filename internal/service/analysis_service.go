// Package service orchestrates the full analysis flow: identity resolution,
// concurrent signal collection, scoring, aggregation, caching, persistence,
// and live broadcast.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/stablewatch/internal/audit"
	"github.com/alanyoungcy/stablewatch/internal/domain"
	"github.com/alanyoungcy/stablewatch/internal/peg"
	"github.com/alanyoungcy/stablewatch/internal/resolver"
	"github.com/alanyoungcy/stablewatch/internal/scoring"
)

// AnalysisConfig holds tunable parameters for the analysis flow.
type AnalysisConfig struct {
	// PriceDays is the price-history window requested from the market-data
	// provider.
	PriceDays int
	// FetchTimeout bounds each individual upstream fetch.
	FetchTimeout time.Duration
	// ReportChannel is the pub/sub channel completed reports are broadcast on.
	ReportChannel string
}

// Caches groups the per-signal caches the service consults before hitting
// upstream providers.
type Caches struct {
	Reports   domain.ReportCache
	Coins     domain.CoinCache
	Peg       domain.PegCache
	Liquidity domain.LiquidityCache
	Audits    domain.AuditCache
}

// AnalysisService assembles risk reports for stablecoin tickers.
type AnalysisService struct {
	market    domain.MarketDataProvider
	liquidity domain.LiquidityProvider
	codeHost  domain.CodeHostProvider
	website   domain.WebsiteAnalyzer

	resolver *resolver.Resolver
	auditor  *audit.Extractor

	caches  Caches
	history domain.ReportHistoryStore
	bus     domain.SignalBus

	cfg    AnalysisConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalysisService creates an AnalysisService. history and bus may be nil;
// persistence and broadcast are then skipped.
func NewAnalysisService(
	market domain.MarketDataProvider,
	liquidity domain.LiquidityProvider,
	codeHost domain.CodeHostProvider,
	website domain.WebsiteAnalyzer,
	res *resolver.Resolver,
	auditor *audit.Extractor,
	caches Caches,
	history domain.ReportHistoryStore,
	bus domain.SignalBus,
	cfg AnalysisConfig,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AnalysisService{
		market:    market,
		liquidity: liquidity,
		codeHost:  codeHost,
		website:   website,
		resolver:  res,
		auditor:   auditor,
		caches:    caches,
		history:   history,
		bus:       bus,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// collected holds the raw signals gathered by the concurrent fan-out, along
// with the error each fetch ended with.
type collected struct {
	samples    []domain.PriceSample
	samplesErr error

	liquidity    domain.LiquidityData
	liquidityErr error

	files    []domain.RepoFile
	commits  int
	filesErr error

	signals    domain.TransparencySignals
	signalsErr error
}

// GetRiskReport assembles (or returns the cached) risk report for a ticker.
//
// Identity failures surface as domain.ErrNotFound or domain.ErrOnlyBridged.
// A failed coin-detail fetch, or the loss of both the price series and the
// website signals, surfaces as domain.ErrUnavailable. All other upstream
// failures degrade the affected factor to its limited-information score.
func (s *AnalysisService) GetRiskReport(ctx context.Context, ticker string) (domain.RiskReport, error) {
	ticker = strings.ToLower(strings.TrimSpace(ticker))
	if ticker == "" {
		return domain.RiskReport{}, fmt.Errorf("analysis: empty ticker: %w", domain.ErrNotFound)
	}

	if report, err := s.caches.Reports.Get(ctx, ticker); err == nil {
		s.logger.DebugContext(ctx, "analysis: report cache hit", slog.String("ticker", ticker))
		return report, nil
	}

	coin, err := s.resolveCoin(ctx, ticker)
	if err != nil {
		return domain.RiskReport{}, err
	}

	detail, err := s.fetchDetail(ctx, coin.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "analysis: coin detail fetch failed",
			slog.String("coin_id", coin.ID),
			slog.String("error", err.Error()),
		)
		return domain.RiskReport{}, fmt.Errorf("analysis: coin detail %s: %w", coin.ID, domain.ErrUnavailable)
	}

	col := s.collectSignals(ctx, ticker, coin, detail)
	if col.samplesErr != nil && col.signalsErr != nil {
		s.logger.ErrorContext(ctx, "analysis: both price series and website signals failed",
			slog.String("ticker", ticker),
			slog.String("prices_error", col.samplesErr.Error()),
			slog.String("website_error", col.signalsErr.Error()),
		)
		return domain.RiskReport{}, fmt.Errorf("analysis: insufficient signals for %s: %w", ticker, domain.ErrUnavailable)
	}

	report := s.assemble(ctx, ticker, coin, detail, col)
	report.ID = uuid.NewString()
	report.GeneratedAt = s.now()

	s.finalize(ctx, ticker, report)
	return report, nil
}

// History returns the most recent persisted report records.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.ReportRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListRecent(ctx, limit)
}

// Latest returns the most recent persisted report record for one ticker.
func (s *AnalysisService) Latest(ctx context.Context, ticker string) (domain.ReportRecord, error) {
	ticker = strings.ToLower(strings.TrimSpace(ticker))
	if s.history == nil || ticker == "" {
		return domain.ReportRecord{}, domain.ErrNotFound
	}
	return s.history.GetLatest(ctx, ticker)
}

// resolveCoin maps a ticker to its canonical native catalogue entry, going
// through the resolved-coin and catalogue caches before the provider.
func (s *AnalysisService) resolveCoin(ctx context.Context, ticker string) (domain.CoinCandidate, error) {
	if coin, err := s.caches.Coins.GetResolved(ctx, ticker); err == nil {
		return coin, nil
	}

	catalogue, err := s.caches.Coins.GetCatalogue(ctx)
	if err != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()

		catalogue, err = s.market.ListCandidates(fetchCtx)
		if err != nil {
			s.logger.ErrorContext(ctx, "analysis: catalogue fetch failed", slog.String("error", err.Error()))
			return domain.CoinCandidate{}, fmt.Errorf("analysis: coin catalogue: %w", domain.ErrUnavailable)
		}
		if cacheErr := s.caches.Coins.SetCatalogue(ctx, catalogue); cacheErr != nil {
			s.logger.WarnContext(ctx, "analysis: catalogue cache write failed", slog.String("error", cacheErr.Error()))
		}
	}

	resolution, err := s.resolver.Resolve(catalogue, ticker)
	if err != nil {
		return domain.CoinCandidate{}, err
	}

	s.logger.InfoContext(ctx, "analysis: resolved native token",
		slog.String("ticker", ticker),
		slog.String("coin_id", resolution.Selected.ID),
		slog.Int("rejected_bridges", len(resolution.RejectedBridges)),
	)

	if err := s.caches.Coins.SetResolved(ctx, ticker, resolution.Selected); err != nil {
		s.logger.WarnContext(ctx, "analysis: resolved-coin cache write failed", slog.String("error", err.Error()))
	}
	return resolution.Selected, nil
}

func (s *AnalysisService) fetchDetail(ctx context.Context, coinID string) (domain.CoinDetail, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.market.FetchDetail(fetchCtx, coinID)
}

// collectSignals fans out the independent upstream fetches. Every branch
// records its own error instead of failing the group so degradation decisions
// stay with the caller.
func (s *AnalysisService) collectSignals(ctx context.Context, ticker string, coin domain.CoinCandidate, detail domain.CoinDetail) collected {
	var col collected

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		col.samples, col.samplesErr = s.fetchPrices(gctx, coin.ID)
		return nil
	})

	g.Go(func() error {
		col.liquidity, col.liquidityErr = s.fetchLiquidity(gctx, ticker)
		return nil
	})

	g.Go(func() error {
		col.files, col.commits, col.filesErr = s.fetchRepo(gctx, detail.RepoURL)
		return nil
	})

	g.Go(func() error {
		col.signals, col.signalsErr = s.fetchWebsite(gctx, detail.Website)
		return nil
	})

	_ = g.Wait()

	s.warnDegraded(ctx, ticker, "liquidity", col.liquidityErr)
	s.warnDegraded(ctx, ticker, "repository", col.filesErr)
	if col.samplesErr == nil {
		s.warnDegraded(ctx, ticker, "website", col.signalsErr)
	}
	if col.signalsErr == nil {
		s.warnDegraded(ctx, ticker, "prices", col.samplesErr)
	}
	return col
}

func (s *AnalysisService) warnDegraded(ctx context.Context, ticker, signal string, err error) {
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "analysis: signal degraded",
		slog.String("ticker", ticker),
		slog.String("signal", signal),
		slog.String("error", err.Error()),
	)
}

func (s *AnalysisService) fetchPrices(ctx context.Context, coinID string) ([]domain.PriceSample, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.market.FetchDailyPrices(fetchCtx, coinID, s.cfg.PriceDays)
}

func (s *AnalysisService) fetchLiquidity(ctx context.Context, ticker string) (domain.LiquidityData, error) {
	if data, err := s.caches.Liquidity.Get(ctx, ticker); err == nil {
		return data, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	chains, err := s.liquidity.FetchChainDistribution(fetchCtx, ticker)
	if err != nil {
		return domain.LiquidityData{}, err
	}

	var total float64
	for _, c := range chains {
		total += c.AmountUSD
	}
	data := domain.LiquidityData{TotalUSD: total, Chains: chains}

	if err := s.caches.Liquidity.Set(ctx, ticker, data); err != nil {
		s.logger.WarnContext(ctx, "analysis: liquidity cache write failed", slog.String("error", err.Error()))
	}
	return data, nil
}

// fetchRepo lists repository files and counts recent commits. A missing
// repository URL is not an error; the audit factor simply scores without
// evidence.
func (s *AnalysisService) fetchRepo(ctx context.Context, repoURL string) ([]domain.RepoFile, int, error) {
	if repoURL == "" {
		return nil, 0, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	files, err := s.codeHost.ListRepoFiles(fetchCtx, repoURL)
	if err != nil {
		return nil, 0, err
	}

	commits, err := s.codeHost.RecentCommitCount(fetchCtx, repoURL)
	if err != nil {
		s.logger.WarnContext(ctx, "analysis: commit count failed",
			slog.String("repo", repoURL),
			slog.String("error", err.Error()),
		)
		commits = 0
	}
	return files, commits, nil
}

func (s *AnalysisService) fetchWebsite(ctx context.Context, siteURL string) (domain.TransparencySignals, error) {
	if siteURL == "" {
		return domain.TransparencySignals{}, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	return s.website.FetchSignals(fetchCtx, siteURL)
}

// assemble runs the extractors and scorers over the collected signals and
// aggregates the report. Failed signals enter as zero values and score as
// limited information.
func (s *AnalysisService) assemble(ctx context.Context, ticker string, coin domain.CoinCandidate, detail domain.CoinDetail, col collected) domain.RiskReport {
	events := s.pegEvents(ctx, ticker, coin.ID, col)
	records := s.auditRecords(ctx, ticker, detail.RepoURL, col)
	oracleSignal := audit.OracleSignalFromFiles(col.files)

	factors := []domain.RiskFactor{
		scoring.ScoreAuditHistory(scoring.AuditInputs{
			Records:       records,
			RecentCommits: col.commits,
			Now:           s.now(),
		}),
		scoring.ScorePegStability(scoring.PegInputs{Events: events}),
		scoring.ScoreTransparency(scoring.TransparencyInputs{Signals: col.signals}),
		scoring.ScoreOracleSetup(scoring.OracleInputs{Signal: oracleSignal}),
		scoring.ScoreLiquidity(scoring.LiquidityInputs{Data: col.liquidity}),
	}

	info := domain.CoinInfo{
		ID:           detail.ID,
		Name:         detail.Name,
		Symbol:       detail.Symbol,
		Description:  detail.Description,
		Website:      detail.Website,
		MarketCapUSD: detail.MarketCapUSD,
		GenesisDate:  detail.GenesisDate,
		ChainCount:   coin.ChainCount(),
	}

	return scoring.Aggregate(info, factors, events, records, col.liquidity)
}

// pegEvents returns extracted peg events, consulting the peg cache first.
func (s *AnalysisService) pegEvents(ctx context.Context, ticker, coinID string, col collected) []domain.PegEvent {
	if col.samplesErr != nil {
		// Fall back to previously extracted events if the price fetch failed.
		if events, err := s.caches.Peg.Get(ctx, coinID); err == nil {
			return events
		}
		return nil
	}

	events := peg.ExtractEvents(col.samples)
	if err := s.caches.Peg.Set(ctx, coinID, events); err != nil {
		s.logger.WarnContext(ctx, "analysis: peg cache write failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
	}
	return events
}

// auditRecords returns mined audit records, consulting the audit cache first.
func (s *AnalysisService) auditRecords(ctx context.Context, ticker, repoURL string, col collected) []domain.AuditRecord {
	if repoURL == "" {
		return nil
	}

	if col.filesErr != nil {
		if records, err := s.caches.Audits.Get(ctx, repoURL); err == nil {
			return records
		}
		return nil
	}

	records := s.auditor.Extract(col.files)
	if err := s.caches.Audits.Set(ctx, repoURL, records); err != nil {
		s.logger.WarnContext(ctx, "analysis: audit cache write failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
	}
	return records
}

// finalize caches, persists, and broadcasts a completed report. All three are
// best effort; the report has already been assembled.
func (s *AnalysisService) finalize(ctx context.Context, ticker string, report domain.RiskReport) {
	if err := s.caches.Reports.Set(ctx, ticker, report); err != nil {
		s.logger.WarnContext(ctx, "analysis: report cache write failed",
			slog.String("ticker", ticker),
			slog.String("error", err.Error()),
		)
	}

	if s.history != nil {
		scores := make(map[string]float64, len(report.Factors))
		for name, f := range report.Factors {
			scores[name] = f.Score
		}
		rec := domain.ReportRecord{
			ID:           report.ID,
			Ticker:       ticker,
			CoinID:       report.CoinInfo.ID,
			TotalScore:   report.TotalScore,
			FactorScores: scores,
			CreatedAt:    report.GeneratedAt,
		}
		if err := s.history.Insert(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "analysis: history insert failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.bus != nil && s.cfg.ReportChannel != "" {
		payload, err := json.Marshal(report)
		if err == nil {
			err = s.bus.Publish(ctx, s.cfg.ReportChannel, payload)
		}
		if err != nil {
			s.logger.WarnContext(ctx, "analysis: report broadcast failed",
				slog.String("ticker", ticker),
				slog.String("error", err.Error()),
			)
		}
	}
}

// IsClientError reports whether an analysis error was caused by the request
// (unknown or bridge-only ticker) rather than an upstream failure.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrOnlyBridged)
}
