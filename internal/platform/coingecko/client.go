// Package coingecko is the REST client for the CoinGecko market-data API. It
// provides the coin catalogue, per-coin detail, and daily price history.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// Client is the CoinGecko API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a CoinGecko client.
//
// baseURL is the API root, e.g. "https://api.coingecko.com/api/v3". apiKey is
// optional; when set it is sent as the demo API key header.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListCandidates returns the full coin catalogue with platform data. The
// result is large (~15k entries) and should be cached by the caller.
func (c *Client) ListCandidates(ctx context.Context) ([]domain.CoinCandidate, error) {
	params := url.Values{}
	params.Set("include_platform", "true")

	body, err := c.doGet(ctx, "/coins/list?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("coingecko: list coins: %w", err)
	}

	var items []apiCoinListItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("coingecko: decode coin list: %w", err)
	}

	candidates := make([]domain.CoinCandidate, 0, len(items))
	for i := range items {
		candidates = append(candidates, items[i].ToDomainCandidate())
	}
	return candidates, nil
}

// FetchDetail returns the full record for a single coin.
func (c *Client) FetchDetail(ctx context.Context, id string) (domain.CoinDetail, error) {
	params := url.Values{}
	params.Set("localization", "false")
	params.Set("tickers", "false")
	params.Set("community_data", "false")
	params.Set("developer_data", "false")

	path := fmt.Sprintf("/coins/%s?%s", url.PathEscape(id), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return domain.CoinDetail{}, fmt.Errorf("coingecko: get coin %s: %w", id, err)
	}

	var detail apiCoinDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return domain.CoinDetail{}, fmt.Errorf("coingecko: decode coin %s: %w", id, err)
	}
	return detail.ToDomainDetail(), nil
}

// FetchDailyPrices returns up to days daily close prices for the coin,
// ascending by date.
func (c *Client) FetchDailyPrices(ctx context.Context, id string, days int) ([]domain.PriceSample, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", strconv.Itoa(days))
	params.Set("interval", "daily")

	path := fmt.Sprintf("/coins/%s/market_chart?%s", url.PathEscape(id), params.Encode())

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("coingecko: market chart %s: %w", id, err)
	}

	var chart apiMarketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("coingecko: decode market chart %s: %w", id, err)
	}
	return chart.ToDomainSamples(), nil
}

// doGet sends a GET request to the CoinGecko API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

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

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return fmt.Errorf("%w: HTTP %d", domain.ErrTimeout, statusCode)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// Compile-time interface check.
var _ domain.MarketDataProvider = (*Client)(nil)
