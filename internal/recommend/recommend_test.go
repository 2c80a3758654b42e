package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/cache"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.calls++
	p.prompts = append(p.prompts, prompt)
	return p.text, p.err
}

func sampleReport() analytics.Report {
	return analytics.Report{
		Summary: analytics.Stats{Count: 12, AvgRating: 3.4, ResponseRate: 25, PositiveShare: 40},
		Risks: []analytics.RiskIndicator{{
			Kind:           analytics.RiskRatingDecline,
			Severity:       analytics.SeverityCritical,
			Probability:    90,
			Description:    "Average rating fell 0.8 stars",
			Recommendation: "Investigate recent service issues",
		}},
		Clusters: analytics.Clusters{Themes: []analytics.ClusterBucket{{Label: "coffee", Stats: analytics.Stats{Count: 5, AvgRating: 4.2}}}},
	}
}

// --- Parse ---

func TestParse_Structured(t *testing.T) {
	recs, source, err := Parse(`{"summary":"Solid","actions":[{"title":"Reply to reviews","priority":"HIGH"}]}`)
	require.NoError(t, err)
	assert.Equal(t, SourceStructured, source)
	assert.Equal(t, "Solid", recs.Summary)
	require.Len(t, recs.Actions, 1)
	assert.Equal(t, PriorityHigh, recs.Actions[0].Priority)
}

func TestParse_StructuredInsideProse(t *testing.T) {
	text := "Here you go:\n```json\n{\"summary\":\"s\",\"actions\":[{\"title\":\"Fix wifi\",\"priority\":\"low\"}]}\n```\nHope this helps."
	recs, source, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, SourceStructured, source)
	assert.Equal(t, "Fix wifi", recs.Actions[0].Title)
}

func TestParse_ExtractedFromList(t *testing.T) {
	text := strings.Join([]string{
		"Overall the feedback is good.",
		"",
		"1. Train staff: be friendlier (high)",
		"2. Fix wifi",
		"- **Respond faster**: reply within a day [low priority]",
	}, "\n")

	recs, source, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, SourceExtracted, source)
	assert.Equal(t, "Overall the feedback is good.", recs.Summary)
	require.Len(t, recs.Actions, 3)

	assert.Equal(t, Action{Title: "Train staff", Detail: "be friendlier", Priority: PriorityHigh}, recs.Actions[0])
	assert.Equal(t, Action{Title: "Fix wifi", Priority: PriorityMedium}, recs.Actions[1])
	assert.Equal(t, Action{Title: "Respond faster", Detail: "reply within a day", Priority: PriorityLow}, recs.Actions[2])
}

func TestParse_Unintelligible(t *testing.T) {
	for _, text := range []string{
		"",
		"I cannot help with that.",
		`{"summary":"s","actions":[{"title":"x","priority":"urgent"}]}`,
		`{"summary":"no actions","actions":[]}`,
	} {
		_, _, err := Parse(text)
		assert.Error(t, err, text)
	}
}

// --- Fallback ---

func TestFallback_FromRisksAndStats(t *testing.T) {
	recs := Fallback(sampleReport())

	require.Len(t, recs.Actions, 3)
	assert.Equal(t, "Investigate recent service issues", recs.Actions[0].Title)
	assert.Equal(t, PriorityHigh, recs.Actions[0].Priority)
	assert.Equal(t, "Respond to more reviews", recs.Actions[1].Title)
	assert.Equal(t, "Address recurring complaints", recs.Actions[2].Title)
	assert.Contains(t, recs.Summary, "12 reviews")
}

func TestFallback_HealthyReport(t *testing.T) {
	recs := Fallback(analytics.Report{Summary: analytics.Stats{Count: 10, AvgRating: 4.8, ResponseRate: 90}})
	require.Len(t, recs.Actions, 1)
	assert.Equal(t, PriorityLow, recs.Actions[0].Priority)
}

// --- BuildPrompt ---

func TestBuildPrompt(t *testing.T) {
	excerpts := []domain.Review{{Stars: 2, Text: strings.Repeat("a", 400)}}
	prompt := BuildPrompt("Blue Door Cafe", sampleReport(), excerpts)

	assert.Contains(t, prompt, "Blue Door Cafe")
	assert.Contains(t, prompt, "Reviews: 12")
	assert.Contains(t, prompt, "[critical] rating_decline")
	assert.Contains(t, prompt, "coffee (5 reviews")
	assert.Contains(t, prompt, strings.Repeat("a", 300)+"…")
	assert.NotContains(t, prompt, strings.Repeat("a", 301))
}

// --- Service ---

func newTestService(p Provider) *Service {
	s := NewService(p, cache.NewLFU[Result](10, time.Hour), time.Second, discardLogger())
	s.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func request(business string) Request {
	return Request{Business: domain.ForBusiness(business), BusinessName: "Cafe", Report: sampleReport()}
}

func TestService_StructuredIsCached(t *testing.T) {
	p := &fakeProvider{text: `{"summary":"s","actions":[{"title":"Reply","priority":"high"}]}`}
	s := newTestService(p)

	first := s.Recommend(context.Background(), request("b1"))
	second := s.Recommend(context.Background(), request("b1"))

	assert.Equal(t, SourceStructured, first.Source)
	assert.Equal(t, "fake", first.Provider)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls)
	assert.Contains(t, p.prompts[0], "Cafe")
}

func TestService_ProviderErrorFallsBack(t *testing.T) {
	p := &fakeProvider{err: errors.Join(ErrProviderUnavailable, errors.New("timeout"))}
	s := newTestService(p)

	res := s.Recommend(context.Background(), request("b1"))
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, "recommendation provider unavailable", res.Reason)
	assert.NotEmpty(t, res.Recommendations.Actions)

	s.Recommend(context.Background(), request("b1"))
	assert.Equal(t, 2, p.calls, "fallbacks must not be cached")
}

func TestService_UnintelligibleFallsBack(t *testing.T) {
	s := newTestService(&fakeProvider{text: "no idea"})

	res := s.Recommend(context.Background(), request("b1"))
	assert.Equal(t, SourceFallback, res.Source)
	assert.NotEmpty(t, res.Reason)
}

func TestService_NoProvider(t *testing.T) {
	s := newTestService(nil)

	res := s.Recommend(context.Background(), request("b1"))
	assert.Equal(t, SourceFallback, res.Source)
	assert.Empty(t, res.Provider)
	assert.Equal(t, "no recommendation provider configured", res.Reason)
}

func TestService_InvalidateBusiness(t *testing.T) {
	p := &fakeProvider{text: "- Reply faster"}
	s := newTestService(p)
	ctx := context.Background()

	s.Recommend(ctx, request("b1"))
	s.Recommend(ctx, request("b2"))
	s.Recommend(ctx, Request{Report: sampleReport()})
	require.Equal(t, 3, p.calls)

	require.NoError(t, s.InvalidateBusiness(ctx, "b1"))

	s.Recommend(ctx, request("b1"))
	s.Recommend(ctx, request("b2"))
	s.Recommend(ctx, Request{Report: sampleReport()})
	assert.Equal(t, 5, p.calls)
}
