package analytics

import "math"

// TrendPoint is one period of a trend series. ActualValue and
// RollingAverage are nil for projected points and for periods without a
// value for the metric.
type TrendPoint struct {
	Period         string   `json:"period"`
	ActualValue    *float64 `json:"actual_value"`
	RollingAverage *float64 `json:"rolling_average,omitempty"`
	PredictedValue float64  `json:"predicted_value"`
	Confidence     float64  `json:"confidence"`
	IsPredicted    bool     `json:"is_predicted"`
}

// TrendSeries is a historical series followed by its projection.
type TrendSeries struct {
	Metric      Metric       `json:"metric"`
	Granularity Granularity  `json:"granularity"`
	Trend       Trend        `json:"trend"`
	Points      []TrendPoint `json:"points"`
}

// Historical returns the non-projected points.
func (s TrendSeries) Historical() []TrendPoint {
	out := make([]TrendPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.IsPredicted {
			out = append(out, p)
		}
	}
	return out
}

// Forecast returns the projected points.
func (s TrendSeries) Forecast() []TrendPoint {
	out := make([]TrendPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if p.IsPredicted {
			out = append(out, p)
		}
	}
	return out
}

// HistoricalSeries turns chronological buckets into trend points for m.
// Bucket i sits at x = i, so gaps must already be filled (see
// Grouping.Continuous). Periods without a value for m are left out of the
// fit and of the rolling average, which trails over the last
// Params.RollingWindow valued periods. PredictedValue is the fitted line;
// confidence starts at HistoricalConfidence for the newest point and drops
// HistoricalStep per period back, floored at MinConfidence.
func HistoricalSeries(buckets []Bucket, m Metric, g Granularity, p Params) TrendSeries {
	values := Values(buckets, m)

	var xs, ys []float64
	for i, b := range buckets {
		if HasValue(b, m) {
			xs = append(xs, float64(i))
			ys = append(ys, values[i])
		}
	}
	trend := EstimateTrendAt(xs, ys, p.TrendEpsilon, p.MinTrendPoints)
	rolling := RollingAverage(ys, p.RollingWindow)
	f := p.Forecast

	points := make([]TrendPoint, len(buckets))
	next := 0
	for i, b := range buckets {
		age := len(buckets) - 1 - i
		points[i] = TrendPoint{
			Period:         b.Label,
			PredictedValue: clampMetric(m, trend.Fitted(i), false),
			Confidence:     math.Max(f.MinConfidence, f.HistoricalConfidence-f.HistoricalStep*float64(age)),
		}
		if HasValue(b, m) {
			actual, avg := values[i], rolling[next]
			points[i].ActualValue = &actual
			points[i].RollingAverage = &avg
			next++
		}
	}

	return TrendSeries{Metric: m, Granularity: g, Trend: trend, Points: points}
}

// Project extends the historical points of series by horizon periods. Each
// step multiplies the previous projected value by GrowthFactor, DeclineFactor
// or 1 depending on the trend direction, starting from the last actual value.
// Fewer than MinHistory historical points yields no projection.
func Project(series TrendSeries, horizon int, p Params) []TrendPoint {
	hist := series.Historical()
	f := p.Forecast
	if horizon <= 0 || len(hist) < f.MinHistory || len(hist) == 0 {
		return []TrendPoint{}
	}
	if horizon > f.MaxHorizon {
		horizon = f.MaxHorizon
	}

	factor := 1.0
	switch series.Trend.Direction {
	case Increasing:
		factor = f.GrowthFactor
	case Decreasing:
		factor = f.DeclineFactor
	}

	last := hist[len(hist)-1]
	value := last.PredictedValue
	if last.ActualValue != nil {
		value = *last.ActualValue
	}

	out := make([]TrendPoint, 0, horizon)
	for step := 1; step <= horizon; step++ {
		value *= factor
		out = append(out, TrendPoint{
			Period:         NextLabel(last.Period, series.Granularity, step),
			PredictedValue: clampMetric(series.Metric, value, true),
			Confidence:     math.Max(f.MinConfidence, f.BaseConfidence-f.ConfidenceStep*float64(step-1)),
			IsPredicted:    true,
		})
	}
	return out
}

// BuildSeries is HistoricalSeries followed by Project.
func BuildSeries(buckets []Bucket, m Metric, g Granularity, horizon int, p Params) TrendSeries {
	s := HistoricalSeries(buckets, m, g, p)
	s.Points = append(s.Points, Project(s, horizon, p)...)
	return s
}

// clampMetric keeps values in the metric's domain: ratings in [1,5], volume
// non-negative (rounded when projected), rates in [0,1].
func clampMetric(m Metric, v float64, projected bool) float64 {
	switch m {
	case MetricRating:
		return clamp(v, 1, 5)
	case MetricVolume:
		v = math.Max(0, v)
		if projected {
			v = math.Round(v)
		}
		return v
	case MetricSentiment, MetricResponseRate:
		return clamp(v, 0, 1)
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
