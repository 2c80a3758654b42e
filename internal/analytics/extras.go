package analytics

import (
	"sort"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

// RatingDistribution counts reviews per star value. Index 0 holds 1 star;
// out-of-range stars are ignored.
type RatingDistribution [5]int

// Distribution computes the RatingDistribution of reviews.
func Distribution(reviews []domain.Review) RatingDistribution {
	var d RatingDistribution
	for _, r := range reviews {
		if r.Stars >= 1 && r.Stars <= 5 {
			d[r.Stars-1]++
		}
	}
	return d
}

// RollingAverage returns the trailing mean of values over window points.
// Early points average over what is available.
func RollingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 1 {
		window = 1
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

// StaffMention aggregates the reviews naming one staff member.
type StaffMention struct {
	Name      string  `json:"name"`
	Mentions  int     `json:"mentions"`
	AvgRating float64 `json:"avg_rating"`
}

// StaffMentions counts mentions per staff name, most mentioned first.
func StaffMentions(reviews []domain.Review) []StaffMention {
	type acc struct {
		mentions int
		stars    int
	}
	byName := make(map[string]*acc)
	for _, r := range reviews {
		for _, name := range r.Staff() {
			a, ok := byName[name]
			if !ok {
				a = &acc{}
				byName[name] = a
			}
			a.mentions++
			a.stars += r.Stars
		}
	}

	out := make([]StaffMention, 0, len(byName))
	for name, a := range byName {
		out = append(out, StaffMention{
			Name:      name,
			Mentions:  a.mentions,
			AvgRating: float64(a.stars) / float64(a.mentions),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Peaks reports the busiest hour and weekday by review count. Labels are
// empty when no review has a date.
type Peaks struct {
	Hour         string `json:"hour"`
	HourCount    int    `json:"hour_count"`
	Weekday      string `json:"weekday"`
	WeekdayCount int    `json:"weekday_count"`
}

// FindPeaks computes Peaks. Ties go to the earliest label.
func FindPeaks(reviews []domain.Review) Peaks {
	var p Peaks
	for _, b := range Group(reviews, Hour).Buckets {
		if b.Stats.Count > p.HourCount {
			p.Hour, p.HourCount = b.Label, b.Stats.Count
		}
	}
	for _, b := range Group(reviews, DayOfWeek).Buckets {
		if b.Stats.Count > p.WeekdayCount {
			p.Weekday, p.WeekdayCount = b.Label, b.Stats.Count
		}
	}
	return p
}
