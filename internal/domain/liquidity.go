package domain

// ChainLiquidity is the circulating amount of a stablecoin on one chain, as
// reported by the on-chain liquidity aggregator.
type ChainLiquidity struct {
	Chain     string  `json:"chain"`
	AmountUSD float64 `json:"amount_usd"`
}

// LiquidityData is the per-chain distribution used by the liquidity scorer
// and echoed in the final report. Chains are ordered descending by amount.
type LiquidityData struct {
	TotalUSD float64          `json:"total_usd"`
	Chains   []ChainLiquidity `json:"chains,omitempty"`
}

// TopChainShare returns the largest chain's share of the total, or 0 when
// there is no liquidity.
func (l LiquidityData) TopChainShare() float64 {
	if l.TotalUSD <= 0 || len(l.Chains) == 0 {
		return 0
	}
	top := l.Chains[0].AmountUSD
	for _, c := range l.Chains[1:] {
		if c.AmountUSD > top {
			top = c.AmountUSD
		}
	}
	return top / l.TotalUSD
}
