package domain

// CoinCandidate is a single entry from the market-data provider's full coin
// catalogue. Many candidates may share a symbol; the resolver decides which
// one is the canonical native deployment.
type CoinCandidate struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	// Platforms maps chain identifier to contract address. Natively issued
	// assets may carry an empty address for their home chain.
	Platforms map[string]string `json:"platforms,omitempty"`
	// MarketCapRank is zero when the provider reports no rank.
	MarketCapRank int `json:"market_cap_rank,omitempty"`
}

// ChainCount returns the number of chains the candidate is deployed on.
func (c CoinCandidate) ChainCount() int {
	return len(c.Platforms)
}

// NativeTokenResolution is the outcome of disambiguating a ticker across
// same-symbol catalogue entries.
type NativeTokenResolution struct {
	Selected        CoinCandidate   `json:"selected"`
	Score           float64         `json:"score"`
	RejectedBridges []CoinCandidate `json:"rejected_bridges,omitempty"`
}

// CoinDetail is the full per-coin record fetched from the market-data
// provider once the native candidate has been resolved.
type CoinDetail struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Symbol       string            `json:"symbol"`
	Description  string            `json:"description,omitempty"`
	Website      string            `json:"website,omitempty"`
	RepoURL      string            `json:"repo_url,omitempty"`
	MarketCapUSD float64           `json:"market_cap_usd"`
	GenesisDate  string            `json:"genesis_date,omitempty"`
	Platforms    map[string]string `json:"platforms,omitempty"`
}

// CoinInfo is the identity block embedded in a RiskReport.
type CoinInfo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Description  string  `json:"description,omitempty"`
	Website      string  `json:"website,omitempty"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	GenesisDate  string  `json:"genesis_date,omitempty"`
	ChainCount   int     `json:"chain_count"`
}
