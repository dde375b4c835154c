package resolver

// Tables holds the static rule tables the resolver scores against. They are
// passed in rather than kept as package globals so tests can supply alternate
// rule sets.
type Tables struct {
	// BridgeKeywords are substrings that mark a candidate as a definite
	// bridge when found in its combined name/id/symbol/platform text.
	// Evaluated in order; first match wins.
	BridgeKeywords []string

	// NativeChainWeights maps chain identifiers to the score contributed
	// when a candidate is deployed there.
	NativeChainWeights map[string]float64

	// ChainKeywords maps a chain identifier to naming keywords that earn a
	// bonus when the candidate is deployed on that chain.
	ChainKeywords map[string][]string

	// NativeAllowlist lists coin IDs that legitimately carry an empty
	// platform set (natively issued on their own chain).
	NativeAllowlist []string
}

// DefaultTables returns the production rule tables.
func DefaultTables() Tables {
	return Tables{
		BridgeKeywords: []string{
			"bridged",
			"wrapped",
			"binance-peg",
			"wormhole",
			"multichain",
			"anyswap",
			"celer",
			"axelar",
			"allbridge",
			"portal",
			"sollet",
			"bsc",
			"polygon",
			"avalanche",
			"arbitrum",
			"optimism",
			"fantom",
			"heco",
			"harmony",
			"moonriver",
		},
		NativeChainWeights: map[string]float64{
			"ethereum": 10,
			"tron":     8,
			"solana":   6,
		},
		ChainKeywords: map[string][]string{
			"ethereum": {"erc20"},
			"tron":     {"trc20"},
			"solana":   {"spl"},
		},
		NativeAllowlist: []string{
			"terrausd",
			"usdd",
		},
	}
}
