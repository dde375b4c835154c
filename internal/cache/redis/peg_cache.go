package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// PegCache implements domain.PegCache.
//
// Key schema:
//
//	peg:{coinID} - JSON array of PegEvent
type PegCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPegCache creates a PegCache backed by the given Client.
func NewPegCache(c *Client, ttl time.Duration) *PegCache {
	return &PegCache{rdb: c.Underlying(), ttl: ttl}
}

func pegKey(coinID string) string {
	return "peg:" + coinID
}

// Set stores extracted peg events for a coin. An empty slice is cached as
// "[]" so a clean price history does not trigger refetches.
func (pc *PegCache) Set(ctx context.Context, coinID string, events []domain.PegEvent) error {
	if events == nil {
		events = []domain.PegEvent{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("redis: marshal peg events %s: %w", coinID, err)
	}
	if err := pc.rdb.Set(ctx, pegKey(coinID), data, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set peg events %s: %w", coinID, err)
	}
	return nil
}

// Get retrieves cached peg events for a coin. It returns domain.ErrNotFound
// when the key does not exist.
func (pc *PegCache) Get(ctx context.Context, coinID string) ([]domain.PegEvent, error) {
	data, err := pc.rdb.Get(ctx, pegKey(coinID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get peg events %s: %w", coinID, err)
	}

	var events []domain.PegEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("redis: unmarshal peg events %s: %w", coinID, err)
	}
	return events, nil
}

// Compile-time interface check.
var _ domain.PegCache = (*PegCache)(nil)
