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

// LiquidityCache implements domain.LiquidityCache.
//
// Key schema:
//
//	liquidity:{ticker} - JSON LiquidityData
type LiquidityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewLiquidityCache creates a LiquidityCache backed by the given Client.
func NewLiquidityCache(c *Client, ttl time.Duration) *LiquidityCache {
	return &LiquidityCache{rdb: c.Underlying(), ttl: ttl}
}

func liquidityKey(ticker string) string {
	return "liquidity:" + strings.ToLower(ticker)
}

// Set stores a per-chain liquidity distribution for a ticker.
func (lc *LiquidityCache) Set(ctx context.Context, ticker string, data domain.LiquidityData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("redis: marshal liquidity %s: %w", ticker, err)
	}
	if err := lc.rdb.Set(ctx, liquidityKey(ticker), payload, lc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set liquidity %s: %w", ticker, err)
	}
	return nil
}

// Get retrieves cached liquidity data for a ticker. It returns
// domain.ErrNotFound when the key does not exist.
func (lc *LiquidityCache) Get(ctx context.Context, ticker string) (domain.LiquidityData, error) {
	payload, err := lc.rdb.Get(ctx, liquidityKey(ticker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.LiquidityData{}, domain.ErrNotFound
		}
		return domain.LiquidityData{}, fmt.Errorf("redis: get liquidity %s: %w", ticker, err)
	}

	var data domain.LiquidityData
	if err := json.Unmarshal(payload, &data); err != nil {
		return domain.LiquidityData{}, fmt.Errorf("redis: unmarshal liquidity %s: %w", ticker, err)
	}
	return data, nil
}

// Compile-time interface check.
var _ domain.LiquidityCache = (*LiquidityCache)(nil)
