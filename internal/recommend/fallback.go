package recommend

import (
	"fmt"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
)

// Fallback derives recommendations from the report alone: one action per
// detected risk plus generic actions for a low response rate or rating.
func Fallback(report analytics.Report) Recommendations {
	s := report.Summary
	recs := Recommendations{
		Summary: fmt.Sprintf("%d reviews with an average rating of %.2f.", s.Count, s.AvgRating),
	}

	for _, r := range report.Risks {
		recs.Actions = append(recs.Actions, Action{
			Title:    r.Recommendation,
			Detail:   r.Description,
			Priority: riskPriority(r.Severity),
		})
	}

	if s.Count > 0 && s.ResponseRate < 50 {
		recs.Actions = append(recs.Actions, Action{
			Title:    "Respond to more reviews",
			Detail:   fmt.Sprintf("Only %.0f%% of reviews have an owner response.", s.ResponseRate),
			Priority: PriorityMedium,
		})
	}
	if s.Count > 0 && s.AvgRating < 4 {
		recs.Actions = append(recs.Actions, Action{
			Title:    "Address recurring complaints",
			Detail:   "Review the lowest rated feedback and fix the most frequent issues.",
			Priority: PriorityHigh,
		})
	}

	if len(recs.Actions) == 0 {
		recs.Actions = append(recs.Actions, Action{
			Title:    "Keep collecting reviews",
			Detail:   "Encourage satisfied customers to leave a review.",
			Priority: PriorityLow,
		})
	}
	return recs
}

func riskPriority(s analytics.Severity) Priority {
	switch s {
	case analytics.SeverityCritical, analytics.SeverityHigh:
		return PriorityHigh
	case analytics.SeverityMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
