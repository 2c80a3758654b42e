package analytics

import (
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func review(id string, stars int, published time.Time) domain.Review {
	return domain.Review{ID: id, BusinessID: "biz-1", Stars: stars, PublishedAt: published}
}

func withSentiment(r domain.Review, s domain.Sentiment) domain.Review {
	r.Sentiment = s
	return r
}

func bucket(label string, count int, avg, positiveShare float64) Bucket {
	return Bucket{Label: label, Stats: Stats{Count: count, AvgRating: avg, PositiveShare: positiveShare}}
}

// declineScenario is three monthly periods whose rating collapses in March,
// plus one undated review.
func declineScenario() []domain.Review {
	r1 := withSentiment(review("r1", 5, at(2024, time.January, 10, 10)), domain.SentimentPositive)
	r1.OwnerResponseText = "Thank you!"
	r1.MainThemes = "food, service"
	r1.StaffMentioned = "Anna"
	r2 := withSentiment(review("r2", 5, at(2024, time.February, 12, 10)), domain.SentimentPositive)
	r2.MainThemes = "food"
	r2.StaffMentioned = "Anna, Ben"
	r3 := withSentiment(review("r3", 2, at(2024, time.March, 5, 14)), domain.SentimentNegative)
	r3.MainThemes = "wait time"
	r4 := withSentiment(review("r4", 1, at(2024, time.March, 20, 14)), domain.SentimentNegative)
	r4.StaffMentioned = "Ben"
	r5 := review("r5", 3, time.Time{})
	return []domain.Review{r1, r2, r3, r4, r5}
}
