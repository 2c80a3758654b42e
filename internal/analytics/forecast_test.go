package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratingBuckets(values ...float64) []Bucket {
	labels := []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06"}
	out := make([]Bucket, len(values))
	for i, v := range values {
		out[i] = bucket(labels[i], 1, v, 0)
	}
	return out
}

func TestHistoricalSeries_Confidence(t *testing.T) {
	s := HistoricalSeries(ratingBuckets(3, 4, 5), MetricRating, Month, DefaultParams())

	require.Len(t, s.Points, 3)
	assert.Equal(t, Increasing, s.Trend.Direction)
	assert.Equal(t, []float64{91, 93, 95}, []float64{s.Points[0].Confidence, s.Points[1].Confidence, s.Points[2].Confidence})
	for _, p := range s.Points {
		require.NotNil(t, p.ActualValue)
		assert.False(t, p.IsPredicted)
	}
	assert.InDelta(t, 4.0, s.Points[1].PredictedValue, 1e-9)
}

func TestHistoricalSeries_ConfidenceFloor(t *testing.T) {
	p := DefaultParams()
	p.Forecast.HistoricalStep = 30
	s := HistoricalSeries(ratingBuckets(3, 4, 5), MetricRating, Month, p)
	assert.Equal(t, 50.0, s.Points[0].Confidence)
}

func TestProject_RatingClampedAndCompounded(t *testing.T) {
	p := DefaultParams()
	s := HistoricalSeries(ratingBuckets(3, 4, 4.8), MetricRating, Month, p)

	got := Project(s, 3, p)
	require.Len(t, got, 3)

	assert.Equal(t, "2024-04", got[0].Period)
	assert.Equal(t, "2024-06", got[2].Period)
	for _, pt := range got {
		assert.True(t, pt.IsPredicted)
		assert.Nil(t, pt.ActualValue)
		assert.LessOrEqual(t, pt.PredictedValue, 5.0)
	}
	// 4.8 * 1.05 = 5.04 -> 5
	assert.Equal(t, 5.0, got[0].PredictedValue)
	assert.Equal(t, []float64{90, 82, 74}, []float64{got[0].Confidence, got[1].Confidence, got[2].Confidence})
}

func TestProject_VolumeRounded(t *testing.T) {
	buckets := []Bucket{bucket("2024-01", 10, 0, 0), bucket("2024-02", 8, 0, 0), bucket("2024-03", 6, 0, 0)}
	p := DefaultParams()
	s := HistoricalSeries(buckets, MetricVolume, Month, p)
	require.Equal(t, Decreasing, s.Trend.Direction)

	got := Project(s, 3, p)
	require.Len(t, got, 3)
	// 6 * 0.95 = 5.7, then 5.415, then 5.144
	assert.Equal(t, 6.0, got[0].PredictedValue)
	assert.Equal(t, 5.0, got[1].PredictedValue)
	assert.Equal(t, 5.0, got[2].PredictedValue)
}

func TestProject_RatingFloor(t *testing.T) {
	p := DefaultParams()
	s := HistoricalSeries(ratingBuckets(3, 2, 1.02), MetricRating, Month, p)
	got := Project(s, 2, p)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].PredictedValue)
	assert.Equal(t, 1.0, got[1].PredictedValue)
}

func TestProject_ConfidenceFloor(t *testing.T) {
	p := DefaultParams()
	s := HistoricalSeries(ratingBuckets(4, 4, 4), MetricRating, Month, p)
	got := Project(s, 10, p)
	require.Len(t, got, 10)
	assert.Equal(t, 50.0, got[9].Confidence)
	for _, pt := range got {
		assert.Equal(t, 4.0, pt.PredictedValue)
	}
}

func TestProject_NotEnoughHistory(t *testing.T) {
	p := DefaultParams()
	s := HistoricalSeries(ratingBuckets(4, 5), MetricRating, Month, p)

	got := Project(s, 3, p)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, Project(TrendSeries{}, 3, p))
}

func TestProject_HorizonCapped(t *testing.T) {
	p := DefaultParams()
	s := HistoricalSeries(ratingBuckets(4, 4, 4), MetricRating, Month, p)
	assert.Len(t, Project(s, 100, p), p.Forecast.MaxHorizon)
	assert.Empty(t, Project(s, 0, p))
}

func TestBuildSeries(t *testing.T) {
	s := BuildSeries(ratingBuckets(3, 4, 5), MetricRating, Month, 2, DefaultParams())
	assert.Len(t, s.Points, 5)
	assert.Len(t, s.Historical(), 3)
	assert.Len(t, s.Forecast(), 2)
}
