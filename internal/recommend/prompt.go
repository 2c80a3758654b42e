package recommend

import (
	"fmt"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

const (
	maxExcerpts      = 15
	maxExcerptLength = 300
)

// BuildPrompt renders the report and a sample of review excerpts into the
// completion prompt.
func BuildPrompt(business string, report analytics.Report, excerpts []domain.Review) string {
	var sb strings.Builder

	sb.WriteString("You are a customer experience consultant analyzing reviews for a business.\n\n")
	fmt.Fprintf(&sb, "## Business\n%s\n\n", business)

	s := report.Summary
	sb.WriteString("## Summary\n")
	fmt.Fprintf(&sb, "Reviews: %d\n", s.Count)
	fmt.Fprintf(&sb, "Average rating: %.2f\n", s.AvgRating)
	fmt.Fprintf(&sb, "Sentiment score: %.2f\n", s.SentimentScore)
	fmt.Fprintf(&sb, "Response rate: %.1f%%\n", s.ResponseRate)
	fmt.Fprintf(&sb, "Positive (4-5 star) share: %.1f%%\n", s.PositiveShare)
	fmt.Fprintf(&sb, "Rating trend: %s\n", report.RatingTrend.Trend.Direction)
	fmt.Fprintf(&sb, "Volume trend: %s\n\n", report.VolumeTrend.Trend.Direction)

	if len(report.Risks) > 0 {
		sb.WriteString("## Detected risks\n")
		for _, r := range report.Risks {
			fmt.Fprintf(&sb, "- [%s] %s: %s\n", r.Severity, r.Kind, r.Description)
		}
		sb.WriteString("\n")
	}

	if len(report.Clusters.Themes) > 0 {
		sb.WriteString("## Frequent themes\n")
		for i, c := range report.Clusters.Themes {
			if i == 10 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%d reviews, avg %.1f)\n", c.Label, c.Stats.Count, c.Stats.AvgRating)
		}
		sb.WriteString("\n")
	}

	if len(excerpts) > 0 {
		sb.WriteString("## Review excerpts\n")
		for i, r := range excerpts {
			if i == maxExcerpts {
				break
			}
			fmt.Fprintf(&sb, "- %d★: %s\n", r.Stars, truncate(strings.TrimSpace(r.Text), maxExcerptLength))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Task\n\n")
	sb.WriteString("Suggest concrete actions to improve the customer experience.\n\n")
	sb.WriteString("IMPORTANT: Respond with ONLY a valid JSON object. No markdown, no explanation.\n\n")
	sb.WriteString("Example structure:\n")
	sb.WriteString(`{"summary": "...", "actions": [{"title": "...", "detail": "...", "priority": "high|medium|low"}]}`)
	sb.WriteString("\n")

	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
