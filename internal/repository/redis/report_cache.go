package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
)

const keyPrefix = "stargazer:report:"

// scanBatch is the COUNT hint passed to SCAN during invalidation.
const scanBatch = 200

// ReportCache implements repository.ReportCache using Redis.
type ReportCache struct {
	client redis.Cmdable
}

// NewReportCache creates a new Redis-backed report cache.
func NewReportCache(client redis.Cmdable) *ReportCache {
	return &ReportCache{client: client}
}

// Get decodes the cached value for key into dst.
func (c *ReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get report: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal report: %w", err)
	}
	return true, nil
}

// Set stores value as JSON under key with the given TTL.
func (c *ReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set report: %w", err)
	}
	return nil
}

// InvalidateBusiness deletes every key of businessID and of the
// all-businesses aggregate.
func (c *ReportCache) InvalidateBusiness(ctx context.Context, businessID string) error {
	prefixes := []string{repository.BusinessKeyPrefix(domain.AllBusinesses)}
	if businessID != "" {
		prefixes = append(prefixes, repository.BusinessKeyPrefix(domain.ForBusiness(businessID)))
	}

	for _, p := range prefixes {
		if err := c.deleteMatching(ctx, keyPrefix+p+"*"); err != nil {
			return err
		}
	}
	return nil
}

func (c *ReportCache) deleteMatching(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del reports: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
