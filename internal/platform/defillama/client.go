// Package defillama is the REST client for the DefiLlama stablecoins API,
// used as the on-chain liquidity aggregator: it reports per-chain circulating
// supply for each tracked stablecoin.
package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// Client is the DefiLlama stablecoins API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a DefiLlama client. baseURL is the stablecoins API root, e.g.
// "https://stablecoins.llama.fi".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiStablecoinList is the response of GET /stablecoins.
type apiStablecoinList struct {
	PeggedAssets []apiStablecoin `json:"peggedAssets"`
}

// apiStablecoin is one tracked stablecoin with its per-chain circulating
// amounts.
type apiStablecoin struct {
	Name             string                       `json:"name"`
	Symbol           string                       `json:"symbol"`
	PegType          string                       `json:"pegType"`
	ChainCirculating map[string]apiChainCirculate `json:"chainCirculating"`
}

type apiChainCirculate struct {
	Current map[string]float64 `json:"current"`
}

// amountUSD extracts the USD-pegged circulating amount for one chain.
func (c apiChainCirculate) amountUSD() float64 {
	// The API keys current amounts by peg type, e.g. "peggedUSD".
	for _, v := range c.Current {
		return v
	}
	return 0
}

// FetchChainDistribution returns the per-chain circulating distribution for
// the stablecoin with the given ticker, descending by amount. It returns
// domain.ErrNotFound when the aggregator does not track the ticker.
func (c *Client) FetchChainDistribution(ctx context.Context, ticker string) ([]domain.ChainLiquidity, error) {
	body, err := c.doGet(ctx, "/stablecoins?includePrices=false")
	if err != nil {
		return nil, fmt.Errorf("defillama: list stablecoins: %w", err)
	}

	var list apiStablecoinList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("defillama: decode stablecoins: %w", err)
	}

	for i := range list.PeggedAssets {
		asset := &list.PeggedAssets[i]
		if !strings.EqualFold(asset.Symbol, ticker) {
			continue
		}

		chains := make([]domain.ChainLiquidity, 0, len(asset.ChainCirculating))
		for chain, circ := range asset.ChainCirculating {
			amount := circ.amountUSD()
			if amount <= 0 {
				continue
			}
			chains = append(chains, domain.ChainLiquidity{
				Chain:     chain,
				AmountUSD: amount,
			})
		}
		sort.Slice(chains, func(a, b int) bool {
			if chains[a].AmountUSD != chains[b].AmountUSD {
				return chains[a].AmountUSD > chains[b].AmountUSD
			}
			return chains[a].Chain < chains[b].Chain
		})
		return chains, nil
	}

	return nil, fmt.Errorf("defillama: ticker %q: %w", ticker, domain.ErrNotFound)
}

// doGet sends an unauthenticated GET request to the stablecoins API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, body)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// Compile-time interface check.
var _ domain.LiquidityProvider = (*Client)(nil)
