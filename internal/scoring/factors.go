// Package scoring maps normalized signals to the five bounded risk factors
// and combines them into the final weighted report.
package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// Factor scores start from a fixed base and are clamped to [0,5] exactly once
// after all adjustments.
const (
	minScore = 0.0
	maxScore = 5.0
)

func clamp(score float64) float64 {
	return math.Min(maxScore, math.Max(minScore, score))
}

// AuditInputs are the normalized inputs to the audit-history scorer.
type AuditInputs struct {
	Records       []domain.AuditRecord
	RecentCommits int
	Now           time.Time
}

// ScoreAuditHistory scores the audit track record: audit count, recency,
// unresolved severity, and development activity.
func ScoreAuditHistory(in AuditInputs) domain.RiskFactor {
	score := 2.5
	n := len(in.Records)

	switch {
	case n >= 4:
		score += 0.75
	case n >= 2:
		score += 0.5
	case n == 1:
		score += 0.25
	default:
		score -= 1.0
	}

	yearAgo := in.Now.AddDate(-1, 0, 0)
	var recent, critical, high int
	for _, r := range in.Records {
		if !r.Date.Before(yearAgo) {
			recent++
		}
		critical += r.Issues.Critical
		high += r.Issues.High
	}
	switch {
	case recent >= 2:
		score += 0.75
	case recent >= 1:
		score += 0.5
	}

	score -= 0.5 * float64(critical)
	if high > 2 {
		score -= 0.25 * float64(high-2)
	}

	if in.RecentCommits > 20 {
		score += 0.25
	}

	details := []string{
		fmt.Sprintf("%d audit report(s) on record", n),
		fmt.Sprintf("%d audit(s) within the last 12 months", recent),
	}
	if critical > 0 || high > 0 {
		details = append(details, fmt.Sprintf("%d critical and %d high severity findings reported", critical, high))
	}
	if in.RecentCommits > 0 {
		details = append(details, fmt.Sprintf("%d commits in the recent activity window", in.RecentCommits))
	}

	return domain.RiskFactor{
		Name:        domain.FactorAuditHistory,
		Score:       clamp(score),
		Description: describeAudit(n, recent),
		Details:     details,
	}
}

func describeAudit(total, recent int) string {
	switch {
	case total == 0:
		return "No published security audits were found."
	case recent == 0:
		return "Audits exist but none are recent."
	default:
		return "Regular security audits with recent coverage."
	}
}

// PegInputs are the normalized inputs to the peg-stability scorer.
type PegInputs struct {
	Events []domain.PegEvent
}

// ScorePegStability scores historical peg adherence from extracted events:
// maximum and average deviation plus the count of severe (>5%) events.
func ScorePegStability(in PegInputs) domain.RiskFactor {
	score := 3.0

	var maxDev, sumDev float64
	var severe int
	for _, e := range in.Events {
		d := e.DeviationPct()
		sumDev += d
		if d > maxDev {
			maxDev = d
		}
		if d > 5 {
			severe++
		}
	}
	var avgDev float64
	if len(in.Events) > 0 {
		avgDev = sumDev / float64(len(in.Events))
	}

	switch {
	case maxDev < 1:
		score += 1.5
	case maxDev < 3:
		score += 1.0
	case maxDev < 5:
		score += 0.5
	case maxDev > 10:
		score -= 1.0
	default:
		score -= 0.5
	}

	switch {
	case avgDev < 0.5:
		score += 0.5
	case avgDev > 2:
		score -= 0.5
	}

	if severe == 0 {
		score += 0.5
	} else {
		score -= 0.5 * float64(severe)
	}

	return domain.RiskFactor{
		Name:        domain.FactorPegStability,
		Score:       clamp(score),
		Description: describePeg(maxDev, severe),
		Details: []string{
			fmt.Sprintf("Maximum deviation from peg: %.2f%%", maxDev),
			fmt.Sprintf("Average deviation from peg: %.2f%%", avgDev),
			fmt.Sprintf("%d event(s) exceeded 5%% deviation", severe),
		},
	}
}

func describePeg(maxDev float64, severe int) string {
	switch {
	case severe > 0:
		return "History includes major depeg events."
	case maxDev >= 3:
		return "Notable deviations from peg observed."
	case maxDev >= 1:
		return "Mostly stable with minor deviations."
	default:
		return "Consistently held its peg."
	}
}

// TransparencyInputs are the normalized inputs to the transparency scorer.
type TransparencyInputs struct {
	Signals domain.TransparencySignals
}

// ScoreTransparency scores issuer disclosure quality from scraped website
// signals, adjusted by collateral type. An unavailable scrape degrades to the
// base score with no bonuses.
func ScoreTransparency(in TransparencyInputs) domain.RiskFactor {
	sig := in.Signals

	if !sig.Available {
		return domain.RiskFactor{
			Name:        domain.FactorTransparency,
			Score:       clamp(2.5),
			Description: "Limited information: issuer website signals were unavailable.",
			Details:     []string{"Website could not be analyzed; base score applied"},
		}
	}

	score := 2.5
	if sig.HasReserveDashboard {
		score += 0.5
	}
	if sig.HasRegularReporting {
		score += 0.5
	}
	if !sig.HasTransparencyPage {
		score -= 1.0
	}

	// Collateral-type adjustments read the running score before clamping.
	if sig.CollateralType == domain.CollateralFiat && score < 3 {
		score -= 0.5
	}
	if sig.CollateralType == domain.CollateralAlgorithmic && score > 2 {
		score += 0.25
	}

	details := []string{
		fmt.Sprintf("Dedicated transparency page: %t", sig.HasTransparencyPage),
		fmt.Sprintf("Reserve dashboard: %t", sig.HasReserveDashboard),
		fmt.Sprintf("Regular reporting: %t", sig.HasRegularReporting),
	}
	if sig.CollateralType != "" {
		details = append(details, "Collateral type: "+sig.CollateralType)
	}

	return domain.RiskFactor{
		Name:        domain.FactorTransparency,
		Score:       clamp(score),
		Description: describeTransparency(sig),
		Details:     details,
	}
}

func describeTransparency(sig domain.TransparencySignals) string {
	switch {
	case sig.HasReserveDashboard && sig.HasRegularReporting:
		return "Strong disclosure: reserve dashboard and regular reporting."
	case sig.HasTransparencyPage:
		return "Basic disclosure via a dedicated transparency page."
	default:
		return "Little public disclosure of reserves."
	}
}

// OracleInputs are the normalized inputs to the oracle-setup scorer.
type OracleInputs struct {
	Signal domain.OracleSignal
}

// ScoreOracleSetup scores the price-feed architecture mined from the
// repository. Without any signal it returns a fixed limited-information
// score.
func ScoreOracleSetup(in OracleInputs) domain.RiskFactor {
	sig := in.Signal

	if !sig.Available {
		return domain.RiskFactor{
			Name:        domain.FactorOracleSetup,
			Score:       2.0,
			Description: "Limited information available about the oracle configuration.",
			Details:     []string{"No oracle evidence found in the repository"},
		}
	}

	score := 2.5
	if sig.ReliableProvider {
		score += 0.75
	}
	if sig.MultipleSources {
		score += 0.75
	}
	if sig.HasTimelock {
		score += 0.5
	}
	if sig.HasDeviationCheck {
		score += 0.5
	}
	if sig.Centralized {
		score -= 1.0
	}

	return domain.RiskFactor{
		Name:        domain.FactorOracleSetup,
		Score:       clamp(score),
		Description: describeOracle(sig),
		Details: []string{
			fmt.Sprintf("Recognized oracle provider: %t", sig.ReliableProvider),
			fmt.Sprintf("Multiple independent sources: %t", sig.MultipleSources),
			fmt.Sprintf("Timelock mechanism: %t", sig.HasTimelock),
			fmt.Sprintf("Price-deviation checks: %t", sig.HasDeviationCheck),
			fmt.Sprintf("Centralized price control: %t", sig.Centralized),
		},
	}
}

func describeOracle(sig domain.OracleSignal) string {
	switch {
	case sig.Centralized:
		return "Price feeds appear centrally controlled."
	case sig.ReliableProvider && sig.MultipleSources:
		return "Robust oracle setup with multiple recognized providers."
	case sig.ReliableProvider:
		return "Uses a recognized oracle provider."
	default:
		return "Custom oracle setup without recognized providers."
	}
}

// LiquidityInputs are the normalized inputs to the liquidity scorer.
type LiquidityInputs struct {
	Data domain.LiquidityData
}

// ScoreLiquidity scores on-chain circulating liquidity: total size, chain
// spread, and concentration on the top chain. The two low-end total
// adjustments stack.
func ScoreLiquidity(in LiquidityInputs) domain.RiskFactor {
	data := in.Data
	total := data.TotalUSD

	score := 2.5
	switch {
	case total >= 5e9:
		score += 1.5
	case total >= 1e9:
		score += 1.0
	case total >= 5e8:
		score += 0.5
	}
	if total < 1e8 {
		score -= 0.5
	}
	if total < 1e7 {
		score -= 1.0
	}

	chains := len(data.Chains)
	switch {
	case chains >= 5:
		score += 0.5
	case chains <= 1:
		score -= 0.5
	}

	topShare := data.TopChainShare()
	switch {
	case topShare > 0.9:
		score -= 0.75
	case topShare > 0.75:
		score -= 0.5
	case topShare < 0.5:
		score += 0.5
	}

	return domain.RiskFactor{
		Name:        domain.FactorLiquidity,
		Score:       clamp(score),
		Description: describeLiquidity(total, chains),
		Details: []string{
			fmt.Sprintf("Total circulating liquidity: $%.0f", total),
			fmt.Sprintf("Deployed across %d chain(s)", chains),
			fmt.Sprintf("Top chain holds %.1f%% of liquidity", topShare*100),
		},
	}
}

func describeLiquidity(total float64, chains int) string {
	switch {
	case total >= 1e9 && chains >= 5:
		return "Deep liquidity spread across many chains."
	case total >= 5e8:
		return "Substantial liquidity with moderate chain spread."
	case total >= 1e8:
		return "Modest liquidity."
	default:
		return "Thin liquidity; exits may be difficult."
	}
}
