package domain

import "time"

// Factor names, also used as keys of RiskReport.Factors.
const (
	FactorAuditHistory = "Audit History"
	FactorPegStability = "Peg Stability"
	FactorTransparency = "Transparency"
	FactorOracleSetup  = "Oracle Setup"
	FactorLiquidity    = "Liquidity"
)

// RiskFactor is one scored risk dimension. Score is always in [0,5]; Details
// are human-readable bullets describing the inputs that drove the score.
type RiskFactor struct {
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
}

// RiskReport is the externally visible root aggregate, built once per request
// and cached by lowercased ticker. It has no mutable state after construction.
//
// ID and GeneratedAt are stamped by the analysis service, not the aggregator,
// so that aggregation stays deterministic for identical inputs.
type RiskReport struct {
	ID           string                `json:"id,omitempty"`
	CoinInfo     CoinInfo              `json:"coin_info"`
	TotalScore   float64               `json:"total_score"`
	Summary      string                `json:"summary"`
	Factors      map[string]RiskFactor `json:"factors"`
	PegEvents    []PegEvent            `json:"peg_events,omitempty"`
	AuditHistory []AuditRecord         `json:"audit_history,omitempty"`
	Liquidity    LiquidityData         `json:"liquidity"`
	GeneratedAt  time.Time             `json:"generated_at,omitzero"`
}
