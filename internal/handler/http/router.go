// Package http exposes the analytics service over a chi router.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/report"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/health"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/middleware"
)

// Services are the collaborators behind the routes.
type Services struct {
	Businesses *service.BusinessService
	Reviews    *service.ReviewService
	Analytics  *service.AnalyticsService
	Exporter   *report.Exporter
	Health     *health.Handler
}

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	ServiceName       string
	CORSOrigins       []string
	JWTSecret         string
	RateLimitRPS      float64
	RateLimitBurst    int
	ResponseMaxAge    time.Duration
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all routes registered. ctx bounds
// background work started by the middleware.
func NewRouter(ctx context.Context, svc Services, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))

	// Health check endpoints
	r.Get("/health/live", svc.Health.LivenessHandler())
	r.Get("/health/ready", svc.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	businessHandler := NewBusinessHandler(svc.Businesses, logger)
	reviewHandler := NewReviewHandler(svc.Reviews, logger)
	analyticsHandler := NewAnalyticsHandler(svc.Analytics, svc.Businesses, svc.Exporter, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Use(middleware.JWTAuth(cfg.JWTSecret, middleware.DefaultPublicRoutes, logger))
		r.Use(middleware.RequestLogger(logger))

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", businessHandler.ListBusinesses)
			r.Post("/", businessHandler.CreateBusiness)
			r.Get("/{id}", businessHandler.GetBusiness)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", reviewHandler.ListReviews)
			r.Post("/", reviewHandler.IngestReviews)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.ResponseMaxAge))

			r.Get("/report", analyticsHandler.Report)
			r.Get("/groups", analyticsHandler.Groups)
			r.Get("/trend", analyticsHandler.Trend)
			r.Get("/risks", analyticsHandler.Risks)
			r.Get("/compare", analyticsHandler.Compare)
			r.Get("/clusters", analyticsHandler.Clusters)
			r.Get("/recommendations", analyticsHandler.Recommendations)
			r.Get("/export", analyticsHandler.Export)
			r.Get("/snapshots", analyticsHandler.ListSnapshots)
			r.Post("/snapshots", analyticsHandler.CreateSnapshot)
		})
	})

	return r
}
