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

// ReportCache implements domain.ReportCache using JSON-serialized reports.
//
// Key schema:
//
//	report:{ticker} - full RiskReport as JSON
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewReportCache creates a ReportCache backed by the given Client.
func NewReportCache(c *Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: c.Underlying(), ttl: ttl}
}

func reportKey(ticker string) string {
	return "report:" + strings.ToLower(ticker)
}

// Set stores a fully assembled report under its ticker.
func (rc *ReportCache) Set(ctx context.Context, ticker string, report domain.RiskReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis: marshal report %s: %w", ticker, err)
	}
	if err := rc.rdb.Set(ctx, reportKey(ticker), data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set report %s: %w", ticker, err)
	}
	return nil
}

// Get retrieves a cached report by ticker. It returns domain.ErrNotFound when
// the key does not exist.
func (rc *ReportCache) Get(ctx context.Context, ticker string) (domain.RiskReport, error) {
	data, err := rc.rdb.Get(ctx, reportKey(ticker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.RiskReport{}, domain.ErrNotFound
		}
		return domain.RiskReport{}, fmt.Errorf("redis: get report %s: %w", ticker, err)
	}

	var report domain.RiskReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.RiskReport{}, fmt.Errorf("redis: unmarshal report %s: %w", ticker, err)
	}
	return report, nil
}

// Compile-time interface check.
var _ domain.ReportCache = (*ReportCache)(nil)
