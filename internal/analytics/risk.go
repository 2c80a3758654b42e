package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

// RiskKind identifies the rule that produced an indicator.
type RiskKind string

const (
	RiskRatingDecline  RiskKind = "rating_decline"
	RiskVolumeDrop     RiskKind = "volume_drop"
	RiskSentimentShift RiskKind = "sentiment_shift"
	RiskSeasonal       RiskKind = "seasonal_risk"
)

// Severity ranks an indicator.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskIndicator is one triggered rule.
type RiskIndicator struct {
	Kind           RiskKind `json:"kind"`
	Severity       Severity `json:"severity"`
	Probability    float64  `json:"probability"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Timeframe      string   `json:"timeframe"`
}

// thresholdTolerance absorbs float error so a drop of exactly the threshold
// (4.3 - 4.0) still triggers.
const thresholdTolerance = 1e-9

func atLeast(v, threshold float64) bool {
	return v >= threshold-thresholdTolerance
}

// DetectRisks evaluates the risk rules over the last t.Window periods of
// periods, which must be chronological and gap free (see
// Grouping.Continuous). history is the full review set used by the seasonal
// rule, and ref selects its calendar month. Fewer than two periods yields no
// indicators. Results are sorted by probability, highest first.
func DetectRisks(periods []Bucket, history []domain.Review, ref time.Time, t RiskThresholds) []RiskIndicator {
	out := []RiskIndicator{}
	if len(periods) < 2 {
		return out
	}

	window := t.Window
	if window < 2 {
		window = 2
	}
	if len(periods) > window {
		periods = periods[len(periods)-window:]
	}
	first, last := periods[0], periods[len(periods)-1]
	span := fmt.Sprintf("%s to %s", first.Label, last.Label)

	if r, ok := ratingDecline(first.Stats, last.Stats, span, t); ok {
		out = append(out, r)
	}
	if r, ok := volumeDrop(first.Stats, last.Stats, span, t); ok {
		out = append(out, r)
	}
	if r, ok := sentimentShift(first.Stats, last.Stats, span, t); ok {
		out = append(out, r)
	}
	if r, ok := seasonalRisk(history, ref, t); ok {
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return out
}

func ratingDecline(first, last Stats, span string, t RiskThresholds) (RiskIndicator, bool) {
	if first.Count == 0 || last.Count == 0 {
		return RiskIndicator{}, false
	}
	drop := first.AvgRating - last.AvgRating
	if !atLeast(drop, t.RatingDrop) {
		return RiskIndicator{}, false
	}

	severity := SeverityHigh
	if atLeast(drop, t.RatingCriticalDrop) {
		severity = SeverityCritical
	}
	return RiskIndicator{
		Kind:        RiskRatingDecline,
		Severity:    severity,
		Probability: math.Min(t.RatingMaxProbability, math.Abs(drop)*100),
		Description: fmt.Sprintf("Average rating fell %.2f stars (%.2f to %.2f) from %s.",
			drop, first.AvgRating, last.AvgRating, span),
		Recommendation: "Read the latest low-star reviews for recurring complaints and respond to each of them.",
		Timeframe:      "next 1-2 months",
	}, true
}

func volumeDrop(first, last Stats, span string, t RiskThresholds) (RiskIndicator, bool) {
	if first.Count == 0 {
		return RiskIndicator{}, false
	}
	pct := float64(first.Count-last.Count) / float64(first.Count) * 100
	if !atLeast(pct, t.VolumeDropPercent) {
		return RiskIndicator{}, false
	}

	severity := SeverityMedium
	if atLeast(pct, t.VolumeHighPercent) {
		severity = SeverityHigh
	}
	return RiskIndicator{
		Kind:        RiskVolumeDrop,
		Severity:    severity,
		Probability: math.Min(t.VolumeMaxProbability, math.Abs(pct)),
		Description: fmt.Sprintf("Review volume fell %.0f%% (%d to %d) from %s.",
			pct, first.Count, last.Count, span),
		Recommendation: "Prompt recent customers for reviews and check whether visit numbers dropped.",
		Timeframe:      "next 1-3 months",
	}, true
}

func sentimentShift(first, last Stats, span string, t RiskThresholds) (RiskIndicator, bool) {
	if first.Count == 0 || last.Count == 0 {
		return RiskIndicator{}, false
	}
	drop := first.PositiveShare - last.PositiveShare
	if !atLeast(drop, t.SentimentDropPoints) {
		return RiskIndicator{}, false
	}

	severity := SeverityMedium
	if atLeast(drop, t.SentimentHighPoints) {
		severity = SeverityHigh
	}
	return RiskIndicator{
		Kind:        RiskSentimentShift,
		Severity:    severity,
		Probability: math.Min(t.SentimentMaxProbability, math.Abs(drop)*2),
		Description: fmt.Sprintf("Share of 4-5 star reviews fell %.0f points (%.0f%% to %.0f%%) from %s.",
			drop, first.PositiveShare, last.PositiveShare, span),
		Recommendation: "Compare recent themes against earlier periods to find what changed in the customer experience.",
		Timeframe:      "next 1-2 months",
	}, true
}

// seasonalRisk compares the historical average rating of ref's calendar
// month, across all years, with the all-time average.
func seasonalRisk(history []domain.Review, ref time.Time, t RiskThresholds) (RiskIndicator, bool) {
	if ref.IsZero() {
		return RiskIndicator{}, false
	}

	var all, month []domain.Review
	for _, r := range history {
		if !r.HasDate() {
			continue
		}
		all = append(all, r)
		if r.PublishedAt.Month() == ref.Month() {
			month = append(month, r)
		}
	}
	if len(month) == 0 || len(month) == len(all) {
		return RiskIndicator{}, false
	}

	overall, monthly := Aggregate(all).AvgRating, Aggregate(month).AvgRating
	deficit := overall - monthly
	if deficit <= t.SeasonalDeficit {
		return RiskIndicator{}, false
	}

	return RiskIndicator{
		Kind:        RiskSeasonal,
		Severity:    SeverityMedium,
		Probability: math.Min(t.SeasonalMaxProbability, deficit*50),
		Description: fmt.Sprintf("%s has historically averaged %.2f stars against %.2f overall.",
			ref.Month(), monthly, overall),
		Recommendation: fmt.Sprintf("Plan staffing and service checks ahead of %s.", ref.Month()),
		Timeframe:      "this month",
	}, true
}
