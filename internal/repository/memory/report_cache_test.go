package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
)

var _ repository.ReportCache = (*ReportCache)(nil)

func TestReportCache_RoundTrip(t *testing.T) {
	c := NewReportCache(10, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "b1:report:month", map[string]int{"count": 3}, time.Minute))

	var got map[string]int
	found, err := c.Get(ctx, "b1:report:month", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got["count"])

	found, err = c.Get(ctx, "b1:report:week", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestReportCache_InvalidateBusiness(t *testing.T) {
	c := NewReportCache(10, time.Minute)
	ctx := context.Background()

	keys := []string{
		repository.ReportKey(domain.ForBusiness("b1"), "report", "month"),
		repository.ReportKey(domain.ForBusiness("b2"), "report", "month"),
		repository.ReportKey(domain.AllBusinesses, "report", "month"),
	}
	for _, k := range keys {
		require.NoError(t, c.Set(ctx, k, 1, 0))
	}

	require.NoError(t, c.InvalidateBusiness(ctx, "b1"))

	var v int
	found, _ := c.Get(ctx, keys[0], &v)
	assert.False(t, found)
	found, _ = c.Get(ctx, keys[1], &v)
	assert.True(t, found)
	found, _ = c.Get(ctx, keys[2], &v)
	assert.False(t, found)
}
