package analytics

import (
	"fmt"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

// Direction classifies a fitted slope.
type Direction string

const (
	Increasing Direction = "increasing"
	Stable     Direction = "stable"
	Decreasing Direction = "decreasing"
)

// Metric names a per-period value that can be trended.
type Metric string

const (
	MetricRating       Metric = "rating"
	MetricVolume       Metric = "volume"
	MetricSentiment    Metric = "sentiment"
	MetricResponseRate Metric = "response_rate"
)

// ParseMetric accepts the canonical metric names case-insensitively.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case MetricRating, MetricVolume, MetricSentiment, MetricResponseRate:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidMetric, s)
}

// Trend is an ordinary least squares fit of value against period index.
type Trend struct {
	Direction Direction `json:"direction"`
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Points    int       `json:"points"`
}

// Fitted returns the line's value at index x.
func (t Trend) Fitted(x int) float64 {
	return t.Intercept + t.Slope*float64(x)
}

// EstimateTrend fits values (oldest first) with x = 0..n-1. Series shorter
// than minPoints are stable with slope 0 and the mean as intercept. R² is 0
// when the series has no variance.
func EstimateTrend(values []float64, epsilon float64, minPoints int) Trend {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	return EstimateTrendAt(xs, values, epsilon, minPoints)
}

// EstimateTrendAt is EstimateTrend with explicit x positions, used when some
// periods carry no value but still occupy their place on the time line.
func EstimateTrendAt(xs, values []float64, epsilon float64, minPoints int) Trend {
	n := len(values)
	t := Trend{Direction: Stable, Points: n}
	if n == 0 || len(xs) != n {
		return t
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := xs[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	t.Intercept = sumY / fn

	if n < minPoints {
		return t
	}

	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return t
	}

	t.Slope = (fn*sumXY - sumX*sumY) / den
	t.Intercept = (sumY - t.Slope*sumX) / fn

	mean := sumY / fn
	var ssTot, ssRes float64
	for i, y := range values {
		ssTot += (y - mean) * (y - mean)
		r := y - (t.Intercept + t.Slope*xs[i])
		ssRes += r * r
	}
	if ssTot > 0 {
		t.RSquared = 1 - ssRes/ssTot
	}

	t.Direction = classify(t.Slope, epsilon)
	return t
}

func classify(delta, epsilon float64) Direction {
	switch {
	case delta > epsilon:
		return Increasing
	case delta < -epsilon:
		return Decreasing
	default:
		return Stable
	}
}

// HasValue reports whether b carries a value for m. An empty period has a
// volume of zero but no rating, sentiment or response rate.
func HasValue(b Bucket, m Metric) bool {
	return m == MetricVolume || b.Stats.Count > 0
}

// Values extracts metric m from each bucket in order.
func Values(buckets []Bucket, m Metric) []float64 {
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = b.Stats.Value(m)
	}
	return out
}
