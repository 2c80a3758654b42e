package analytics

import (
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

const (
	DefaultGranularity = Month
	DefaultHorizon     = 3
)

// Engine binds Params to the analytics functions. The zero value is not
// usable; build one with NewEngine.
type Engine struct {
	params Params
}

// NewEngine returns an Engine using p.
func NewEngine(p Params) *Engine {
	return &Engine{params: p}
}

// Params returns the engine's parameters.
func (e *Engine) Params() Params {
	return e.params
}

// AnalyzeOptions tunes Analyze. An empty Granularity selects months and a
// zero Reference selects the latest dated review as the seasonal reference.
// Horizon is taken as given; 0 projects nothing.
type AnalyzeOptions struct {
	Granularity Granularity
	Horizon     int
	Reference   time.Time
}

// Report is the full analysis of one review set.
type Report struct {
	Summary      Stats              `json:"summary"`
	Sentiment    SentimentBreakdown `json:"sentiment"`
	Undated      int                `json:"undated"`
	Distribution RatingDistribution `json:"distribution"`
	Periods      Grouping           `json:"periods"`
	RatingTrend  TrendSeries        `json:"rating_trend"`
	VolumeTrend  TrendSeries        `json:"volume_trend"`
	Risks        []RiskIndicator    `json:"risks"`
	Clusters     Clusters           `json:"clusters"`
	Staff        []StaffMention     `json:"staff"`
	Peaks        Peaks              `json:"peaks"`
}

// DefaultOptions returns monthly periods with a DefaultHorizon forecast.
func DefaultOptions() AnalyzeOptions {
	return AnalyzeOptions{Granularity: DefaultGranularity, Horizon: DefaultHorizon}
}

// Analyze runs every analysis over reviews. Chronological periods are
// continuous: months without reviews appear as empty buckets.
func (e *Engine) Analyze(reviews []domain.Review, opts AnalyzeOptions) Report {
	g := opts.Granularity
	if g == "" {
		g = DefaultGranularity
	}

	periods := Group(reviews, g).Continuous()
	return Report{
		Summary:      Aggregate(reviews),
		Sentiment:    Breakdown(reviews),
		Undated:      periods.Undated,
		Distribution: Distribution(reviews),
		Periods:      periods,
		RatingTrend:  BuildSeries(periods.Buckets, MetricRating, g, opts.Horizon, e.params),
		VolumeTrend:  BuildSeries(periods.Buckets, MetricVolume, g, opts.Horizon, e.params),
		Risks:        e.risks(periods, reviews, opts.Reference),
		Clusters:     Cluster(reviews),
		Staff:        StaffMentions(reviews),
		Peaks:        FindPeaks(reviews),
	}
}

// Group buckets reviews by g. Only populated periods are returned.
func (e *Engine) Group(reviews []domain.Review, g Granularity) Grouping {
	return Group(reviews, g)
}

// Trend builds the series of metric m over g periods with horizon projected
// points.
func (e *Engine) Trend(reviews []domain.Review, m Metric, g Granularity, horizon int) TrendSeries {
	return BuildSeries(Group(reviews, g).Continuous().Buckets, m, g, horizon, e.params)
}

// Risks detects risks over monthly periods. A zero ref selects the latest
// dated review.
func (e *Engine) Risks(reviews []domain.Review, ref time.Time) []RiskIndicator {
	return e.risks(Group(reviews, Month).Continuous(), reviews, ref)
}

func (e *Engine) risks(periods Grouping, reviews []domain.Review, ref time.Time) []RiskIndicator {
	if ref.IsZero() {
		ref = Latest(reviews)
	}
	buckets := periods.Buckets
	if !periods.Granularity.Chronological() {
		// Cyclic groupings have no window to compare; fall back to months.
		buckets = Group(reviews, Month).Continuous().Buckets
	}
	return DetectRisks(buckets, reviews, ref, e.params.Risk)
}

// Compare compares two review sets.
func (e *Engine) Compare(current, previous []domain.Review) Comparison {
	return Compare(current, previous, e.params.TrendEpsilon)
}

// Cluster partitions reviews.
func (e *Engine) Cluster(reviews []domain.Review) Clusters {
	return Cluster(reviews)
}

// Latest returns the latest publication date in reviews, or the zero time.
func Latest(reviews []domain.Review) time.Time {
	var latest time.Time
	for _, r := range reviews {
		if r.HasDate() && r.PublishedAt.After(latest) {
			latest = r.PublishedAt
		}
	}
	return latest
}
