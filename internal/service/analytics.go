package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/event"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/logger"
)

const maxExcerpts = 15

// Query selects the reviews an analysis runs over. Reference is the moment
// snapshots judge seasonal risk against; zero selects the latest dated
// review.
type Query struct {
	Business  domain.BusinessFilter
	Range     domain.DateRange
	Reference time.Time
}

func (q Query) validate() error {
	if err := q.Range.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	return nil
}

// Baseline selects the comparison window.
type Baseline string

const (
	BaselinePrevious Baseline = "previous"
	BaselineYearAgo  Baseline = "year_ago"
)

// ParseBaseline accepts "previous" (the default for "") and "year_ago".
func ParseBaseline(s string) (Baseline, error) {
	switch Baseline(s) {
	case "", BaselinePrevious:
		return BaselinePrevious, nil
	case BaselineYearAgo:
		return BaselineYearAgo, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("invalid baseline %q, want previous or year_ago", s))
}

// ComparisonResult is a comparison together with the windows it covers.
type ComparisonResult struct {
	Baseline   Baseline             `json:"baseline"`
	Current    domain.DateRange     `json:"current"`
	Previous   domain.DateRange     `json:"previous"`
	Comparison analytics.Comparison `json:"comparison"`
}

// AnalyticsDeps are the collaborators of AnalyticsService. Cache,
// Recommender and Producer are optional.
type AnalyticsDeps struct {
	Reviews     repository.ReviewRepository
	Businesses  repository.BusinessRepository
	Snapshots   repository.SnapshotRepository
	Cache       repository.ReportCache
	CacheTTL    time.Duration
	Engine      *analytics.Engine
	Recommender *recommend.Service
	Producer    *event.Producer
	Logger      *slog.Logger
}

// AnalyticsService runs the analytics engine over stored reviews.
type AnalyticsService struct {
	reviews     repository.ReviewRepository
	businesses  repository.BusinessRepository
	snapshots   repository.SnapshotRepository
	cache       repository.ReportCache
	cacheTTL    time.Duration
	engine      *analytics.Engine
	recommender *recommend.Service
	producer    *event.Producer
	logger      *slog.Logger
	now         func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(deps AnalyticsDeps) *AnalyticsService {
	if deps.Recommender == nil {
		deps.Recommender = recommend.NewService(nil, nil, 0, deps.Logger)
	}
	return &AnalyticsService{
		reviews:     deps.Reviews,
		businesses:  deps.Businesses,
		snapshots:   deps.Snapshots,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		engine:      deps.Engine,
		recommender: deps.Recommender,
		producer:    deps.Producer,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// Engine returns the analytics engine.
func (s *AnalyticsService) Engine() *analytics.Engine {
	return s.engine
}

// fetch loads the reviews for q. Store failures are wrapped with
// domain.ErrReviewSourceUnavailable; no analysis runs on partial data.
func (s *AnalyticsService) fetch(ctx context.Context, q Query) ([]domain.Review, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.List(ctx, domain.ReviewQuery{Business: q.Business, Range: q.Range})
	if err != nil {
		return nil, apperrors.Unavailable("review store", fmt.Errorf("%w: %v", domain.ErrReviewSourceUnavailable, err))
	}
	return reviews, nil
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	analysesTotal.WithLabelValues(op, outcome).Inc()
	analysisDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Report returns the full analysis for q, served from the report cache when
// possible.
func (s *AnalyticsService) Report(ctx context.Context, q Query, opts analytics.AnalyzeOptions) (_ *analytics.Report, err error) {
	start := time.Now()
	defer func() { observe("report", start, err) }()

	if opts.Horizon < 0 || opts.Horizon > s.engine.Params().Forecast.MaxHorizon {
		return nil, apperrors.InvalidInput(fmt.Sprintf("horizon must be between 0 and %d", s.engine.Params().Forecast.MaxHorizon))
	}

	key := repository.ReportKey(q.Business, "report", reportDetail(q, opts))
	var cached analytics.Report
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	report := s.engine.Analyze(reviews, opts)
	s.cacheSet(ctx, key, report)

	if err := s.producer.PublishReportGenerated(ctx, event.ReportGeneratedData{
		BusinessID:  q.Business.ID(),
		From:        q.Range.From,
		To:          q.Range.To,
		ReviewCount: report.Summary.Count,
		AvgRating:   report.Summary.AvgRating,
		RiskCount:   len(report.Risks),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish report_generated event", slog.String("error", err.Error()))
	}

	logger.FromContext(ctx).DebugContext(ctx, "report computed",
		slog.String("business", q.Business.String()),
		slog.Int("reviews", len(reviews)),
		slog.Int("risks", len(report.Risks)),
	)
	return &report, nil
}

func reportDetail(q Query, opts analytics.AnalyzeOptions) string {
	ref := ""
	if !opts.Reference.IsZero() {
		ref = opts.Reference.UTC().Format(time.DateOnly)
	}
	return q.Range.String() + "|" + string(opts.Granularity) + "|" + strconv.Itoa(opts.Horizon) + "|" + ref
}

func (s *AnalyticsService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.logger.WarnContext(ctx, "report cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		reportCacheLookups.WithLabelValues("error").Inc()
		return false
	}
	if found {
		reportCacheLookups.WithLabelValues("hit").Inc()
	} else {
		reportCacheLookups.WithLabelValues("miss").Inc()
	}
	return found
}

func (s *AnalyticsService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "report cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Group buckets the reviews of q by g.
func (s *AnalyticsService) Group(ctx context.Context, q Query, g analytics.Granularity) (_ analytics.Grouping, err error) {
	start := time.Now()
	defer func() { observe("group", start, err) }()

	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return analytics.Grouping{}, err
	}
	return s.engine.Group(reviews, g), nil
}

// Trend returns the series of m over g periods with horizon projected points.
func (s *AnalyticsService) Trend(ctx context.Context, q Query, m analytics.Metric, g analytics.Granularity, horizon int) (_ analytics.TrendSeries, err error) {
	start := time.Now()
	defer func() { observe("trend", start, err) }()

	if limit := s.engine.Params().Forecast.MaxHorizon; horizon < 0 || horizon > limit {
		return analytics.TrendSeries{}, apperrors.InvalidInput(fmt.Sprintf("horizon must be between 0 and %d", limit))
	}
	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return analytics.TrendSeries{}, err
	}
	return s.engine.Trend(reviews, m, g, horizon), nil
}

// Risks detects risk indicators over monthly periods. A zero ref selects the
// latest dated review as the seasonal reference.
func (s *AnalyticsService) Risks(ctx context.Context, q Query, ref time.Time) (_ []analytics.RiskIndicator, err error) {
	start := time.Now()
	defer func() { observe("risks", start, err) }()

	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.engine.Risks(reviews, ref), nil
}

// Compare compares q's window with its baseline window. Both windows are
// fetched concurrently; q.Range must be bounded.
func (s *AnalyticsService) Compare(ctx context.Context, q Query, baseline Baseline) (_ *ComparisonResult, err error) {
	start := time.Now()
	defer func() { observe("compare", start, err) }()

	var (
		prev domain.DateRange
		ok   bool
	)
	switch baseline {
	case BaselineYearAgo:
		prev, ok = q.Range.YearAgo()
	default:
		baseline = BaselinePrevious
		prev, ok = q.Range.Previous()
	}
	if !ok {
		return nil, apperrors.InvalidInput("comparison requires both from and to")
	}

	var current, previous []domain.Review
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.fetch(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.fetch(gctx, Query{Business: q.Business, Range: prev})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ComparisonResult{
		Baseline:   baseline,
		Current:    q.Range,
		Previous:   prev,
		Comparison: s.engine.Compare(current, previous),
	}, nil
}

// Clusters partitions the reviews of q.
func (s *AnalyticsService) Clusters(ctx context.Context, q Query) (_ analytics.Clusters, err error) {
	start := time.Now()
	defer func() { observe("clusters", start, err) }()

	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return analytics.Clusters{}, err
	}
	return s.engine.Cluster(reviews), nil
}

// Recommendations analyzes q and asks the recommender for advice. Review
// fetch failures are returned; provider failures degrade to a fallback.
func (s *AnalyticsService) Recommendations(ctx context.Context, q Query) (_ *recommend.Result, err error) {
	start := time.Now()
	defer func() { observe("recommendations", start, err) }()

	name := ""
	if !q.Business.IsAll() {
		b, err := s.businesses.GetByID(ctx, q.Business.ID())
		if err != nil {
			return nil, fmt.Errorf("get business by id: %w", err)
		}
		name = b.Name
	}

	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	res := s.recommender.Recommend(ctx, recommend.Request{
		Business:     q.Business,
		BusinessName: name,
		Range:        q.Range,
		Report:       s.engine.Analyze(reviews, analytics.DefaultOptions()),
		Excerpts:     excerpts(reviews, maxExcerpts),
	})
	return &res, nil
}

// excerpts returns up to n reviews with text, newest first.
func excerpts(reviews []domain.Review, n int) []domain.Review {
	out := make([]domain.Review, 0, n)
	for _, r := range reviews {
		if r.Text != "" {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// CreateSnapshot analyzes q, persists the report and announces it. A
// risk_detected event follows when the report carries indicators.
func (s *AnalyticsService) CreateSnapshot(ctx context.Context, q Query) (_ *domain.Snapshot, err error) {
	start := time.Now()
	defer func() { observe("snapshot", start, err) }()

	reviews, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	opts := analytics.DefaultOptions()
	opts.Reference = q.Reference
	report := s.engine.Analyze(reviews, opts)

	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	snap := &domain.Snapshot{
		ID:          uuid.New().String(),
		BusinessID:  q.Business.ID(),
		From:        q.Range.From,
		To:          q.Range.To,
		ReviewCount: report.Summary.Count,
		AvgRating:   report.Summary.AvgRating,
		RiskCount:   len(report.Risks),
		Report:      raw,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	if err := s.producer.PublishReportGenerated(ctx, event.ReportGeneratedData{
		BusinessID:  snap.BusinessID,
		From:        snap.From,
		To:          snap.To,
		ReviewCount: snap.ReviewCount,
		AvgRating:   snap.AvgRating,
		RiskCount:   snap.RiskCount,
		SnapshotID:  snap.ID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish report_generated event", slog.String("error", err.Error()))
	}
	if len(report.Risks) > 0 {
		if err := s.producer.PublishRiskDetected(ctx, event.RiskDetectedData{
			BusinessID: snap.BusinessID,
			From:       snap.From,
			To:         snap.To,
			Risks:      report.Risks,
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish risk_detected event", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "snapshot saved",
		slog.String("snapshot_id", snap.ID),
		slog.String("business", q.Business.String()),
		slog.Int("reviews", snap.ReviewCount),
		slog.Int("risks", snap.RiskCount),
	)
	return snap, nil
}

// ListSnapshots returns the newest snapshots of a business ("" for the
// all-businesses snapshots).
func (s *AnalyticsService) ListSnapshots(ctx context.Context, business domain.BusinessFilter, limit int) ([]domain.Snapshot, error) {
	list, err := s.snapshots.ListByBusiness(ctx, business.ID(), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return list, nil
}
