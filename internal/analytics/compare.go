package analytics

import "github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"

// Change is the two-point direction of a compared metric.
type Change string

const (
	Up     Change = "up"
	Down   Change = "down"
	Steady Change = "stable"
)

// MetricDelta compares one metric across two periods. ChangePercent is 0
// when Previous is 0.
type MetricDelta struct {
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Trend         Change  `json:"trend"`
}

// Comparison holds the deltas for every compared metric. Sentiment shares
// are percentages of all reviews in the period.
type Comparison struct {
	Rating         MetricDelta `json:"rating"`
	Volume         MetricDelta `json:"volume"`
	PositiveShare  MetricDelta `json:"positive_share"`
	NeutralShare   MetricDelta `json:"neutral_share"`
	NegativeShare  MetricDelta `json:"negative_share"`
	SentimentScore MetricDelta `json:"sentiment_score"`
	ResponseRate   MetricDelta `json:"response_rate"`
}

// NewMetricDelta builds a delta, classifying the change with epsilon.
func NewMetricDelta(current, previous, epsilon float64) MetricDelta {
	change := current - previous
	d := MetricDelta{
		Current:  current,
		Previous: previous,
		Change:   change,
		Trend:    Steady,
	}
	if previous != 0 {
		d.ChangePercent = change / previous * 100
	}
	switch classify(change, epsilon) {
	case Increasing:
		d.Trend = Up
	case Decreasing:
		d.Trend = Down
	}
	return d
}

// SentimentBreakdown is the percentage of reviews per sentiment label.
// Reviews without sentiment count toward the denominator only.
type SentimentBreakdown struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// Breakdown computes the SentimentBreakdown of reviews.
func Breakdown(reviews []domain.Review) SentimentBreakdown {
	var pos, neu, neg int
	for _, r := range reviews {
		switch r.Sentiment {
		case domain.SentimentPositive:
			pos++
		case domain.SentimentNeutral:
			neu++
		case domain.SentimentNegative:
			neg++
		}
	}
	n := float64(len(reviews))
	return SentimentBreakdown{
		Positive: ratio(float64(pos), n) * 100,
		Neutral:  ratio(float64(neu), n) * 100,
		Negative: ratio(float64(neg), n) * 100,
	}
}

// Compare computes per-metric deltas between two review sets.
func Compare(current, previous []domain.Review, epsilon float64) Comparison {
	cs, ps := Aggregate(current), Aggregate(previous)
	cb, pb := Breakdown(current), Breakdown(previous)

	return Comparison{
		Rating:         NewMetricDelta(cs.AvgRating, ps.AvgRating, epsilon),
		Volume:         NewMetricDelta(float64(cs.Count), float64(ps.Count), epsilon),
		PositiveShare:  NewMetricDelta(cb.Positive, pb.Positive, epsilon),
		NeutralShare:   NewMetricDelta(cb.Neutral, pb.Neutral, epsilon),
		NegativeShare:  NewMetricDelta(cb.Negative, pb.Negative, epsilon),
		SentimentScore: NewMetricDelta(cs.SentimentScore, ps.SentimentScore, epsilon),
		ResponseRate:   NewMetricDelta(cs.ResponseRate, ps.ResponseRate, epsilon),
	}
}
