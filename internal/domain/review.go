package domain

import (
	"strings"
	"time"
)

// Sentiment is the classifier label attached to a review. The zero value
// means the review carries no sentiment.
type Sentiment string

const (
	SentimentNone     Sentiment = ""
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment accepts any casing and surrounding whitespace. Unknown
// labels map to SentimentNone rather than an error.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNeutral:
		return SentimentNeutral
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNone
	}
}

// Valid reports whether s is one of the three known labels.
func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

// Review is a customer review as fetched from the review store. A zero
// PublishedAt means the source date was missing or unparsable.
type Review struct {
	ID                string    `json:"id"`
	BusinessID        string    `json:"business_id"`
	BusinessName      string    `json:"business_name,omitempty"`
	ExternalID        string    `json:"external_id,omitempty"`
	Stars             int       `json:"stars"`
	Text              string    `json:"text,omitempty"`
	Sentiment         Sentiment `json:"sentiment,omitempty"`
	PublishedAt       time.Time `json:"published_at"`
	OwnerResponseText string    `json:"owner_response_text,omitempty"`
	MainThemes        string    `json:"main_themes,omitempty"`
	StaffMentioned    string    `json:"staff_mentioned,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HasDate reports whether the review can be placed in a temporal bucket.
func (r Review) HasDate() bool {
	return !r.PublishedAt.IsZero()
}

// Responded reports whether the owner replied.
func (r Review) Responded() bool {
	return strings.TrimSpace(r.OwnerResponseText) != ""
}

// Themes returns the trimmed, non-empty theme labels.
func (r Review) Themes() []string {
	return SplitList(r.MainThemes)
}

// Staff returns the trimmed, non-empty staff names.
func (r Review) Staff() []string {
	return SplitList(r.StaffMentioned)
}

// SplitList splits a comma separated field, trimming entries and dropping
// empty ones.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var reviewDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseReviewDate parses the date formats seen in review exports. It returns
// the zero time for empty or unparsable input; such reviews are excluded
// from temporal analysis but still counted in totals.
func ParseReviewDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
