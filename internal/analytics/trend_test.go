package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTrend(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		direction Direction
		slope     float64
	}{
		{"increasing", []float64{1, 2, 3}, Increasing, 1},
		{"decreasing", []float64{5, 5, 1.5}, Decreasing, -1.75},
		{"flat", []float64{4, 4, 4, 4}, Stable, 0},
		{"within epsilon", []float64{4, 4.005, 4.01}, Stable, 0.005},
		{"two points", []float64{1, 5}, Stable, 0},
		{"one point", []float64{3}, Stable, 0},
		{"empty", nil, Stable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTrend(tt.values, 0.01, 3)
			assert.Equal(t, tt.direction, got.Direction)
			assert.InDelta(t, tt.slope, got.Slope, 1e-9)
			assert.Equal(t, len(tt.values), got.Points)
		})
	}
}

func TestEstimateTrend_ShortSeriesInterceptIsMean(t *testing.T) {
	got := EstimateTrend([]float64{1, 2}, 0.01, 3)
	assert.InDelta(t, 1.5, got.Intercept, 1e-9)
	assert.InDelta(t, 1.5, got.Fitted(5), 1e-9)
}

func TestEstimateTrend_RSquared(t *testing.T) {
	assert.InDelta(t, 1.0, EstimateTrend([]float64{2, 4, 6, 8}, 0.01, 3).RSquared, 1e-9)
	assert.Equal(t, 0.0, EstimateTrend([]float64{3, 3, 3}, 0.01, 3).RSquared)

	noisy := EstimateTrend([]float64{1, 3, 2, 4}, 0.01, 3)
	assert.Greater(t, noisy.RSquared, 0.0)
	assert.Less(t, noisy.RSquared, 1.0)
}

func TestEstimateTrend_Monotonic(t *testing.T) {
	up := make([]float64, 12)
	down := make([]float64, 12)
	for i := range up {
		up[i] = float64(i) * 0.2
		down[i] = 10 - float64(i)*0.2
	}
	assert.Equal(t, Increasing, EstimateTrend(up, 0.01, 3).Direction)
	assert.Equal(t, Decreasing, EstimateTrend(down, 0.01, 3).Direction)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" Rating ")
	assert.NoError(t, err)
	assert.Equal(t, MetricRating, m)

	_, err = ParseMetric("revenue")
	assert.Error(t, err)
}

func TestValues(t *testing.T) {
	buckets := []Bucket{bucket("a", 2, 4.5, 100), bucket("b", 3, 3.0, 50)}
	assert.Equal(t, []float64{4.5, 3.0}, Values(buckets, MetricRating))
	assert.Equal(t, []float64{2, 3}, Values(buckets, MetricVolume))
}
