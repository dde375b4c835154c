package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// AuditCache implements domain.AuditCache. Repository URLs are hashed into
// the key so arbitrary URL characters never leak into the key space.
//
// Key schema:
//
//	audits:{sha256(repoURL)} - JSON array of AuditRecord
type AuditCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAuditCache creates an AuditCache backed by the given Client.
func NewAuditCache(c *Client, ttl time.Duration) *AuditCache {
	return &AuditCache{rdb: c.Underlying(), ttl: ttl}
}

func auditKey(repoURL string) string {
	sum := sha256.Sum256([]byte(repoURL))
	return "audits:" + hex.EncodeToString(sum[:])
}

// Set stores mined audit records for a repository. An empty slice is cached
// as "[]" so repositories without audits do not trigger repeated mining.
func (ac *AuditCache) Set(ctx context.Context, repoURL string, records []domain.AuditRecord) error {
	if records == nil {
		records = []domain.AuditRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("redis: marshal audits %s: %w", repoURL, err)
	}
	if err := ac.rdb.Set(ctx, auditKey(repoURL), data, ac.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set audits %s: %w", repoURL, err)
	}
	return nil
}

// Get retrieves cached audit records for a repository. It returns
// domain.ErrNotFound when the key does not exist.
func (ac *AuditCache) Get(ctx context.Context, repoURL string) ([]domain.AuditRecord, error) {
	data, err := ac.rdb.Get(ctx, auditKey(repoURL)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get audits %s: %w", repoURL, err)
	}

	var records []domain.AuditRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("redis: unmarshal audits %s: %w", repoURL, err)
	}
	return records, nil
}

// Compile-time interface check.
var _ domain.AuditCache = (*AuditCache)(nil)
