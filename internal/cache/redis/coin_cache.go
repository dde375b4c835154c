package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// CoinCache implements domain.CoinCache. It holds the full provider coin
// catalogue (large, refreshed daily) and per-ticker resolution results so
// repeat lookups skip both the catalogue download and the scoring pass.
//
// Key schema:
//
//	coins:catalogue        - JSON array of CoinCandidate
//	coin:resolved:{ticker} - JSON CoinCandidate
type CoinCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCoinCache creates a CoinCache backed by the given Client.
func NewCoinCache(c *Client, ttl time.Duration) *CoinCache {
	return &CoinCache{rdb: c.Underlying(), ttl: ttl}
}

const catalogueKey = "coins:catalogue"

func resolvedKey(ticker string) string {
	return "coin:resolved:" + strings.ToLower(ticker)
}

// SetCatalogue stores the full coin catalogue.
func (cc *CoinCache) SetCatalogue(ctx context.Context, coins []domain.CoinCandidate) error {
	data, err := json.Marshal(coins)
	if err != nil {
		return fmt.Errorf("redis: marshal catalogue: %w", err)
	}
	if err := cc.rdb.Set(ctx, catalogueKey, data, cc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set catalogue: %w", err)
	}
	return nil
}

// GetCatalogue retrieves the cached coin catalogue. It returns
// domain.ErrNotFound when no catalogue is cached.
func (cc *CoinCache) GetCatalogue(ctx context.Context) ([]domain.CoinCandidate, error) {
	data, err := cc.rdb.Get(ctx, catalogueKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get catalogue: %w", err)
	}

	var coins []domain.CoinCandidate
	if err := json.Unmarshal(data, &coins); err != nil {
		return nil, fmt.Errorf("redis: unmarshal catalogue: %w", err)
	}
	return coins, nil
}

// SetResolved stores the native-token resolution for a ticker.
func (cc *CoinCache) SetResolved(ctx context.Context, ticker string, coin domain.CoinCandidate) error {
	data, err := json.Marshal(coin)
	if err != nil {
		return fmt.Errorf("redis: marshal resolved %s: %w", ticker, err)
	}
	if err := cc.rdb.Set(ctx, resolvedKey(ticker), data, cc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set resolved %s: %w", ticker, err)
	}
	return nil
}

// GetResolved retrieves the cached resolution for a ticker. It returns
// domain.ErrNotFound when the key does not exist.
func (cc *CoinCache) GetResolved(ctx context.Context, ticker string) (domain.CoinCandidate, error) {
	data, err := cc.rdb.Get(ctx, resolvedKey(ticker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CoinCandidate{}, domain.ErrNotFound
		}
		return domain.CoinCandidate{}, fmt.Errorf("redis: get resolved %s: %w", ticker, err)
	}

	var coin domain.CoinCandidate
	if err := json.Unmarshal(data, &coin); err != nil {
		return domain.CoinCandidate{}, fmt.Errorf("redis: unmarshal resolved %s: %w", ticker, err)
	}
	return coin, nil
}

// Compile-time interface check.
var _ domain.CoinCache = (*CoinCache)(nil)
