package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

var scoreNow = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func TestScoreAuditHistory_SingleRecentCleanAudit(t *testing.T) {
	// 1 audit, 6 months old, 0 issues: 2.5 + 0.25 + 0.5 = 3.25.
	in := AuditInputs{
		Records: []domain.AuditRecord{
			{Firm: "CertiK", Date: scoreNow.AddDate(0, -6, 0)},
		},
		Now: scoreNow,
	}
	f := ScoreAuditHistory(in)
	assert.InDelta(t, 3.25, f.Score, 1e-9)
}

func TestScoreAuditHistory_NoAudits(t *testing.T) {
	f := ScoreAuditHistory(AuditInputs{Now: scoreNow})
	assert.InDelta(t, 1.5, f.Score, 1e-9)
	assert.Equal(t, "No published security audits were found.", f.Description)
}

func TestScoreAuditHistory_SeverityPenalties(t *testing.T) {
	// 4 audits (+0.75), 2 recent (+0.75), 1 critical (-0.5),
	// 4 high (-0.25*(4-2) = -0.5), commits > 20 (+0.25).
	records := []domain.AuditRecord{
		{Date: scoreNow.AddDate(0, -1, 0), Issues: domain.IssueCounts{Critical: 1, High: 2}},
		{Date: scoreNow.AddDate(0, -2, 0), Issues: domain.IssueCounts{High: 2}},
		{Date: scoreNow.AddDate(-2, 0, 0)},
		{Date: scoreNow.AddDate(-3, 0, 0)},
	}
	f := ScoreAuditHistory(AuditInputs{Records: records, RecentCommits: 25, Now: scoreNow})
	assert.InDelta(t, 2.5+0.75+0.75-0.5-0.5+0.25, f.Score, 1e-9)
}

func TestScoreAuditHistory_ClampedAtZero(t *testing.T) {
	records := []domain.AuditRecord{
		{Date: scoreNow.AddDate(-2, 0, 0), Issues: domain.IssueCounts{Critical: 10}},
	}
	f := ScoreAuditHistory(AuditInputs{Records: records, Now: scoreNow})
	assert.Equal(t, 0.0, f.Score)
}

func pegEvents(prices ...float64) []domain.PegEvent {
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.PegEvent, 0, len(prices))
	for i, p := range prices {
		out = append(out, domain.PegEvent{Date: d.AddDate(0, 0, 7*i), Price: p})
	}
	return out
}

func TestScorePegStability_TightPegClampsToMax(t *testing.T) {
	// maxDev 0.8%, avgDev < 0.5%, no severe events:
	// 3.0 + 1.5 + 0.5 + 0.5 = 5.5, clamped to 5.0.
	f := ScorePegStability(PegInputs{Events: pegEvents(1.008, 1.002, 0.999)})
	assert.Equal(t, 5.0, f.Score)
}

func TestScorePegStability_MajorDepegs(t *testing.T) {
	// maxDev 15% (>10: -1.0), avg > 2 (-0.5), 2 severe (-1.0): 0.5.
	f := ScorePegStability(PegInputs{Events: pegEvents(0.85, 0.93)})
	assert.InDelta(t, 0.5, f.Score, 1e-9)
	assert.Equal(t, "History includes major depeg events.", f.Description)
}

func TestScorePegStability_ModerateDeviation(t *testing.T) {
	// maxDev 2.5% (<3: +1.0), avg 1.75% (neutral), 0 severe (+0.5): 4.5.
	f := ScorePegStability(PegInputs{Events: pegEvents(1.025, 0.99)})
	assert.InDelta(t, 4.5, f.Score, 1e-9)
}

func TestScoreTransparency_Unavailable(t *testing.T) {
	f := ScoreTransparency(TransparencyInputs{})
	assert.Equal(t, 2.5, f.Score)
	assert.Contains(t, f.Description, "Limited information")
}

func TestScoreTransparency_FullDisclosure(t *testing.T) {
	f := ScoreTransparency(TransparencyInputs{Signals: domain.TransparencySignals{
		Available:           true,
		HasTransparencyPage: true,
		HasReserveDashboard: true,
		HasRegularReporting: true,
	}})
	assert.InDelta(t, 3.5, f.Score, 1e-9)
}

func TestScoreTransparency_FiatPenaltyOnlyBelowThree(t *testing.T) {
	// No transparency page: 2.5 - 1.0 = 1.5 < 3, fiat penalty applies.
	low := ScoreTransparency(TransparencyInputs{Signals: domain.TransparencySignals{
		Available:      true,
		CollateralType: domain.CollateralFiat,
	}})
	assert.InDelta(t, 1.0, low.Score, 1e-9)

	// Full disclosure: 3.5 >= 3, no fiat penalty.
	high := ScoreTransparency(TransparencyInputs{Signals: domain.TransparencySignals{
		Available:           true,
		HasTransparencyPage: true,
		HasReserveDashboard: true,
		HasRegularReporting: true,
		CollateralType:      domain.CollateralFiat,
	}})
	assert.InDelta(t, 3.5, high.Score, 1e-9)
}

func TestScoreTransparency_AlgorithmicBonus(t *testing.T) {
	f := ScoreTransparency(TransparencyInputs{Signals: domain.TransparencySignals{
		Available:           true,
		HasTransparencyPage: true,
		CollateralType:      domain.CollateralAlgorithmic,
	}})
	assert.InDelta(t, 2.75, f.Score, 1e-9)
}

func TestScoreOracleSetup_NoSignal(t *testing.T) {
	f := ScoreOracleSetup(OracleInputs{})
	assert.Equal(t, 2.0, f.Score)
	assert.Contains(t, f.Description, "Limited information")
}

func TestScoreOracleSetup_FullSetup(t *testing.T) {
	f := ScoreOracleSetup(OracleInputs{Signal: domain.OracleSignal{
		Available:         true,
		ReliableProvider:  true,
		MultipleSources:   true,
		HasTimelock:       true,
		HasDeviationCheck: true,
	}})
	assert.Equal(t, 5.0, f.Score)
}

func TestScoreOracleSetup_CentralizedPenalty(t *testing.T) {
	f := ScoreOracleSetup(OracleInputs{Signal: domain.OracleSignal{
		Available:   true,
		Centralized: true,
	}})
	assert.InDelta(t, 1.5, f.Score, 1e-9)
}

func liquidityData(amounts ...float64) domain.LiquidityData {
	var data domain.LiquidityData
	for i, a := range amounts {
		data.Chains = append(data.Chains, domain.ChainLiquidity{
			Chain:     string(rune('a' + i)),
			AmountUSD: a,
		})
		data.TotalUSD += a
	}
	return data
}

func TestScoreLiquidity_SpreadTwoBillion(t *testing.T) {
	// $2B across 6 chains, top chain 40%: 2.5 + 1.0 + 0.5 + 0.5 = 4.5.
	f := ScoreLiquidity(LiquidityInputs{Data: liquidityData(
		800e6, 400e6, 300e6, 250e6, 150e6, 100e6,
	)})
	assert.InDelta(t, 4.5, f.Score, 1e-9)
}

func TestScoreLiquidity_LowEndAdjustmentsStack(t *testing.T) {
	// $5M on one chain: 2.5 - 0.5 - 1.0 - 0.5 (single chain) - 0.75 (>90%)
	// is negative and clamps to zero.
	f := ScoreLiquidity(LiquidityInputs{Data: liquidityData(5e6)})
	assert.Equal(t, 0.0, f.Score)
}

func TestScoreLiquidity_ConcentrationPenalty(t *testing.T) {
	// $6B but 95% on the top chain, 2 chains: 2.5 + 1.5 - 0.75 = 3.25.
	f := ScoreLiquidity(LiquidityInputs{Data: liquidityData(5.7e9, 0.3e9)})
	assert.InDelta(t, 3.25, f.Score, 1e-9)
}

func TestFactorScoresAlwaysClamped(t *testing.T) {
	factors := []domain.RiskFactor{
		ScoreAuditHistory(AuditInputs{Now: scoreNow}),
		ScorePegStability(PegInputs{Events: pegEvents(0.5, 0.6, 0.7)}),
		ScoreTransparency(TransparencyInputs{}),
		ScoreOracleSetup(OracleInputs{}),
		ScoreLiquidity(LiquidityInputs{}),
	}
	for _, f := range factors {
		assert.GreaterOrEqual(t, f.Score, 0.0, f.Name)
		assert.LessOrEqual(t, f.Score, 5.0, f.Name)
	}
}
