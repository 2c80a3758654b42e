package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/cache"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

var resultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stargazer_recommendations_total",
	Help: "Recommendation results by source.",
}, []string{"source"})

// Request is the input of one recommendation call.
type Request struct {
	Business     domain.BusinessFilter
	BusinessName string
	Range        domain.DateRange
	Report       analytics.Report
	Excerpts     []domain.Review
}

func (r Request) cacheKey() string {
	return r.Business.String() + ":" + r.Range.String()
}

// Service produces recommendations and caches provider results. Fallback
// results are never cached so the provider is retried on the next call.
type Service struct {
	provider Provider
	cache    *cache.LFU[Result]
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a recommendation service. A nil provider always yields
// fallback results.
func NewService(provider Provider, c *cache.LFU[Result], timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		provider: provider,
		cache:    c,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Recommend returns recommendations for req. Provider failures and
// unintelligible completions degrade to a labelled fallback rather than an
// error.
func (s *Service) Recommend(ctx context.Context, req Request) Result {
	key := req.cacheKey()
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			return res
		}
	}

	if s.provider == nil {
		return s.fallback(req, "", "no recommendation provider configured")
	}

	text, err := s.complete(ctx, req)
	if err != nil {
		reason := "recommendation provider failed"
		if errors.Is(err, ErrProviderUnavailable) {
			reason = "recommendation provider unavailable"
		}
		s.logger.WarnContext(ctx, "recommendation provider failed, using fallback",
			slog.String("provider", s.provider.Name()),
			slog.String("business", req.Business.String()),
			slog.String("error", err.Error()),
		)
		return s.fallback(req, s.provider.Name(), reason)
	}

	recs, source, err := Parse(text)
	if err != nil {
		s.logger.WarnContext(ctx, "unintelligible completion, using fallback",
			slog.String("provider", s.provider.Name()),
			slog.Int("length", len(text)),
		)
		return s.fallback(req, s.provider.Name(), err.Error())
	}

	res := Result{
		Source:          source,
		Provider:        s.provider.Name(),
		Recommendations: recs,
		GeneratedAt:     s.now().UTC(),
	}
	resultsTotal.WithLabelValues(string(source)).Inc()
	if s.cache != nil {
		s.cache.Set(key, res)
	}
	return res
}

func (s *Service) complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	name := req.BusinessName
	if name == "" {
		name = "All businesses"
	}
	text, err := s.provider.Complete(ctx, BuildPrompt(name, req.Report, req.Excerpts))
	if err != nil {
		return "", fmt.Errorf("complete with %s: %w", s.provider.Name(), err)
	}
	return text, nil
}

func (s *Service) fallback(req Request, provider, reason string) Result {
	resultsTotal.WithLabelValues(string(SourceFallback)).Inc()
	return Result{
		Source:          SourceFallback,
		Provider:        provider,
		Reason:          reason,
		Recommendations: Fallback(req.Report),
		GeneratedAt:     s.now().UTC(),
	}
}

// InvalidateBusiness drops cached results for businessID and for the
// all-businesses view.
func (s *Service) InvalidateBusiness(_ context.Context, businessID string) error {
	if s.cache == nil {
		return nil
	}
	s.cache.DeletePrefix(domain.AllBusinesses.String() + ":")
	if businessID != "" {
		s.cache.DeletePrefix(domain.ForBusiness(businessID).String() + ":")
	}
	return nil
}
