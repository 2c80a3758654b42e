// Package memory provides in-process implementations used when Redis is not
// configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/cache"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
)

// ReportCache implements repository.ReportCache on an in-process LFU. The
// TTL passed to Set is ignored in favour of the cache-wide TTL.
type ReportCache struct {
	lfu *cache.LFU[[]byte]
}

// NewReportCache creates an LFU-backed report cache.
func NewReportCache(size int, ttl time.Duration) *ReportCache {
	return &ReportCache{lfu: cache.NewLFU[[]byte](size, ttl)}
}

// Get decodes the cached value for key into dst.
func (c *ReportCache) Get(_ context.Context, key string, dst any) (bool, error) {
	data, ok := c.lfu.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal report: %w", err)
	}
	return true, nil
}

// Set stores value as JSON under key.
func (c *ReportCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	c.lfu.Set(key, data)
	return nil
}

// InvalidateBusiness drops the entries of businessID and of the
// all-businesses aggregate.
func (c *ReportCache) InvalidateBusiness(_ context.Context, businessID string) error {
	c.lfu.DeletePrefix(repository.BusinessKeyPrefix(domain.AllBusinesses))
	if businessID != "" {
		c.lfu.DeletePrefix(repository.BusinessKeyPrefix(domain.ForBusiness(businessID)))
	}
	return nil
}

// Stats exposes the underlying LFU counters.
func (c *ReportCache) Stats() cache.Stats {
	return c.lfu.Stats()
}
