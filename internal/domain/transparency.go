package domain

import "time"

// Collateral types recognized by the transparency scorer.
const (
	CollateralFiat        = "Fiat-backed"
	CollateralCrypto      = "Crypto-backed"
	CollateralAlgorithmic = "Algorithmic"
	CollateralUnknown     = "Unknown"
)

// TransparencySignals are the structured signals scraped from the issuer's
// website. Available is false when the scrape failed or returned nothing; the
// scorer then falls back to the base transparency score with no bonuses.
type TransparencySignals struct {
	Available           bool      `json:"available"`
	HasTransparencyPage bool      `json:"has_transparency_page"`
	HasReserveDashboard bool      `json:"has_reserve_dashboard"`
	HasRegularReporting bool      `json:"has_regular_reporting"`
	CollateralType      string    `json:"collateral_type,omitempty"`
	LastUpdated         time.Time `json:"last_updated,omitzero"`
}
