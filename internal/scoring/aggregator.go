package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// Weights are the fixed per-factor weights. They sum to 1.0, so a total
// computed from in-range factors is always within [0,5].
var Weights = map[string]float64{
	domain.FactorAuditHistory: 0.25,
	domain.FactorPegStability: 0.25,
	domain.FactorTransparency: 0.20,
	domain.FactorOracleSetup:  0.15,
	domain.FactorLiquidity:    0.15,
}

// riskTier classifies a total score into a narrative tier.
func riskTier(total float64) string {
	switch {
	case total >= 4:
		return "low-risk"
	case total >= 3:
		return "moderately low-risk"
	case total >= 2:
		return "moderate-risk"
	default:
		return "high-risk"
	}
}

// commentary are the fixed closing sentences, selected by total-score bucket
// from >=4.5 down to <2.
var commentary = []struct {
	threshold float64
	sentence  string
}{
	{4.5, "Overall this is among the most robust stablecoins assessed by this methodology."},
	{4.0, "The fundamentals are strong and no single factor raises material concern."},
	{3.5, "The profile is solid, though the weaker factors deserve periodic review."},
	{3.0, "The coin is broadly sound but carries identifiable weaknesses."},
	{2.5, "Caution is warranted; several factors score below the comfort threshold."},
	{2.0, "Material risks are present across multiple factors."},
	{1.5, "The risk profile is poor; only limited exposure is advisable."},
	{0.0, "Severe deficiencies were identified; this coin scores poorly on most factors."},
}

func commentaryFor(total float64) string {
	for _, c := range commentary {
		if total >= c.threshold {
			return c.sentence
		}
	}
	return commentary[len(commentary)-1].sentence
}

// Aggregate combines the five factors into the final immutable RiskReport.
// It is deterministic: identical inputs produce identical output. ID and
// GeneratedAt are left for the caller to stamp.
func Aggregate(
	info domain.CoinInfo,
	factors []domain.RiskFactor,
	events []domain.PegEvent,
	audits []domain.AuditRecord,
	liquidity domain.LiquidityData,
) domain.RiskReport {
	byName := make(map[string]domain.RiskFactor, len(factors))
	var total float64
	for _, f := range factors {
		byName[f.Name] = f
		total += f.Score * Weights[f.Name]
	}

	return domain.RiskReport{
		CoinInfo:     info,
		TotalScore:   total,
		Summary:      narrative(info, factors, total),
		Factors:      byName,
		PegEvents:    events,
		AuditHistory: audits,
		Liquidity:    liquidity,
	}
}

// narrative generates the report summary: risk tier, the two strongest
// factors, the weakest factor, and a closing commentary sentence.
func narrative(info domain.CoinInfo, factors []domain.RiskFactor, total float64) string {
	ranked := make([]domain.RiskFactor, len(factors))
	copy(ranked, factors)
	// Stable sort keeps the canonical factor order on score ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) is assessed as a %s stablecoin with an overall score of %.2f out of 5.",
		info.Name, strings.ToUpper(info.Symbol), riskTier(total), total)

	if len(ranked) >= 3 {
		fmt.Fprintf(&sb, " Its strongest areas are %s and %s, while %s is the key challenge.",
			ranked[0].Name, ranked[1].Name, ranked[len(ranked)-1].Name)
	}

	sb.WriteByte(' ')
	sb.WriteString(commentaryFor(total))
	return sb.String()
}
