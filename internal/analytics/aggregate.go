package analytics

import "github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"

// Stats are the aggregate metrics of a set of reviews. PositiveShare is the
// percentage of 4 and 5 star reviews.
type Stats struct {
	Count          int     `json:"count"`
	AvgRating      float64 `json:"avg_rating"`
	SentimentScore float64 `json:"sentiment_score"`
	ResponseRate   float64 `json:"response_rate"`
	PositiveShare  float64 `json:"positive_share"`
}

// SentimentValue maps a sentiment to its score. Absent or unknown sentiment
// scores as neutral.
func SentimentValue(s domain.Sentiment) float64 {
	switch s {
	case domain.SentimentPositive:
		return 1
	case domain.SentimentNegative:
		return 0
	default:
		return 0.5
	}
}

// Aggregate computes Stats for reviews. Empty input yields all zeros.
func Aggregate(reviews []domain.Review) Stats {
	n := len(reviews)
	if n == 0 {
		return Stats{}
	}

	var stars, sentiment float64
	var responded, positive int
	for _, r := range reviews {
		stars += float64(r.Stars)
		sentiment += SentimentValue(r.Sentiment)
		if r.Responded() {
			responded++
		}
		if r.Stars >= 4 {
			positive++
		}
	}

	return Stats{
		Count:          n,
		AvgRating:      stars / float64(n),
		SentimentScore: sentiment / float64(n),
		ResponseRate:   float64(responded) / float64(n),
		PositiveShare:  float64(positive) / float64(n) * 100,
	}
}

// Value returns the metric m from s.
func (s Stats) Value(m Metric) float64 {
	switch m {
	case MetricVolume:
		return float64(s.Count)
	case MetricSentiment:
		return s.SentimentScore
	case MetricResponseRate:
		return s.ResponseRate
	default:
		return s.AvgRating
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
