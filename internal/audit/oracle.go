package audit

import (
	"strings"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// reliableOracleProviders are recognized price-feed providers; finding one in
// the repository marks the oracle setup as using a reliable source.
var reliableOracleProviders = []string{
	"chainlink",
	"chronicle",
	"pyth",
	"redstone",
	"tellor",
}

// centralizationMarkers suggest a single party can set prices directly.
var centralizationMarkers = []string{
	"onlyowner",
	"adminoracle",
	"admin_oracle",
	"manualprice",
	"manual_price",
	"setprice",
	"set_price",
}

// OracleSignalFromFiles scans repository file paths and contents for
// oracle-related patterns. The signal is unavailable when no file mentions an
// oracle at all; callers then fall back to a fixed limited-information score.
func OracleSignalFromFiles(files []domain.RepoFile) domain.OracleSignal {
	var sig domain.OracleSignal
	providers := map[string]bool{}

	for _, f := range files {
		text := strings.ToLower(f.Path)
		if f.Content != "" {
			text += "\n" + strings.ToLower(f.Content)
		}

		if strings.Contains(text, "oracle") {
			sig.Available = true
		}
		for _, p := range reliableOracleProviders {
			if strings.Contains(text, p) {
				providers[p] = true
			}
		}
		if strings.Contains(text, "timelock") {
			sig.HasTimelock = true
		}
		if strings.Contains(text, "deviation") || strings.Contains(text, "circuit_breaker") || strings.Contains(text, "circuitbreaker") {
			sig.HasDeviationCheck = true
		}
		for _, m := range centralizationMarkers {
			if strings.Contains(text, m) {
				sig.Centralized = true
				break
			}
		}
	}

	if !sig.Available {
		return domain.OracleSignal{}
	}

	sig.ReliableProvider = len(providers) > 0
	sig.MultipleSources = len(providers) > 1
	return sig
}
