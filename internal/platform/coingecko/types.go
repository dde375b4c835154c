package coingecko

import (
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// apiCoinListItem is one entry of GET /coins/list?include_platform=true.
type apiCoinListItem struct {
	ID        string            `json:"id"`
	Symbol    string            `json:"symbol"`
	Name      string            `json:"name"`
	Platforms map[string]string `json:"platforms"`
}

// ToDomainCandidate converts the DTO to a domain CoinCandidate, dropping
// empty platform keys that the API sometimes emits.
func (a *apiCoinListItem) ToDomainCandidate() domain.CoinCandidate {
	platforms := make(map[string]string, len(a.Platforms))
	for chain, contract := range a.Platforms {
		if chain == "" {
			continue
		}
		platforms[chain] = contract
	}
	return domain.CoinCandidate{
		ID:        a.ID,
		Symbol:    a.Symbol,
		Name:      a.Name,
		Platforms: platforms,
	}
}

// apiCoinDetail is the subset of GET /coins/{id} the engine consumes.
type apiCoinDetail struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description struct {
		En string `json:"en"`
	} `json:"description"`
	Links struct {
		Homepage []string `json:"homepage"`
		ReposURL struct {
			Github []string `json:"github"`
		} `json:"repos_url"`
	} `json:"links"`
	GenesisDate string            `json:"genesis_date"`
	Platforms   map[string]string `json:"platforms"`
	MarketData  struct {
		MarketCap map[string]float64 `json:"market_cap"`
	} `json:"market_data"`
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ToDomainDetail converts the DTO to a domain CoinDetail.
func (a *apiCoinDetail) ToDomainDetail() domain.CoinDetail {
	return domain.CoinDetail{
		ID:           a.ID,
		Name:         a.Name,
		Symbol:       a.Symbol,
		Description:  a.Description.En,
		Website:      firstNonEmpty(a.Links.Homepage),
		RepoURL:      firstNonEmpty(a.Links.ReposURL.Github),
		MarketCapUSD: a.MarketData.MarketCap["usd"],
		GenesisDate:  a.GenesisDate,
		Platforms:    a.Platforms,
	}
}

// apiMarketChart is the response of GET /coins/{id}/market_chart. Prices are
// [timestamp_ms, price] pairs.
type apiMarketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// ToDomainSamples converts millisecond timestamps to UTC calendar days,
// keeping the last quote per day.
func (a *apiMarketChart) ToDomainSamples() []domain.PriceSample {
	samples := make([]domain.PriceSample, 0, len(a.Prices))
	for _, p := range a.Prices {
		ts := time.UnixMilli(int64(p[0])).UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)

		if n := len(samples); n > 0 && samples[n-1].Date.Equal(day) {
			samples[n-1].Price = p[1]
			continue
		}
		samples = append(samples, domain.PriceSample{Date: day, Price: p[1]})
	}
	return samples
}
