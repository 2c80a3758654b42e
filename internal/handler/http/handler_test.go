package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/event"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/report"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository/memory"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository/sqlite"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/health"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httputil"
)

// =============================================================================
// Test helpers
// =============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, cfg RouterConfig) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := testLogger()

	db, err := sqlite.Open(ctx, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	businesses := sqlite.NewBusinessRepository(db)
	reviews := sqlite.NewReviewRepository(db)
	snapshots := sqlite.NewSnapshotRepository(db)
	reportCache := memory.NewReportCache(100, time.Minute)
	producer := event.NewProducer(nil, logger)

	exporter, err := report.NewExporter(nil)
	require.NoError(t, err)

	healthHandler := health.NewHandler()
	healthHandler.Register("sqlite", db.Ping)

	svc := Services{
		Businesses: service.NewBusinessService(businesses, logger),
		Reviews:    service.NewReviewService(reviews, businesses, producer, logger, reportCache),
		Analytics: service.NewAnalyticsService(service.AnalyticsDeps{
			Reviews:    reviews,
			Businesses: businesses,
			Snapshots:  snapshots,
			Cache:      reportCache,
			CacheTTL:   time.Minute,
			Engine:     analytics.NewEngine(analytics.DefaultParams()),
			Producer:   producer,
			Logger:     logger,
		}),
		Exporter: exporter,
		Health:   healthHandler,
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "stargazer-test"
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{"*"}
	}
	return NewRouter(ctx, svc, cfg, logger)
}

func do(t *testing.T, h http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a Response whose data is decoded into T.
type envelope[T any] struct {
	Data  T                       `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	return env
}

func createBusiness(t *testing.T, h http.Handler, name string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/businesses", map[string]string{"name": name, "category": "cafe"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		ID string `json:"id"`
	}](t, rec).Data.ID
}

func decliningBatch(businessID string) map[string]any {
	review := func(ext string, stars int, date, sentiment, text string) map[string]any {
		return map[string]any{
			"external_id":  ext,
			"stars":        stars,
			"published_at": date,
			"sentiment":    sentiment,
			"text":         text,
			"main_themes":  "coffee, service",
		}
	}
	return map[string]any{
		"business_id": businessID,
		"reviews": []map[string]any{
			review("g-1", 5, "2024-01-05T12:00:00Z", "positive", "Lovely coffee"),
			review("g-2", 5, "2024-01-20T12:00:00Z", "positive", ""),
			review("g-3", 5, "2024-02-03T12:00:00Z", "positive", "Great staff"),
			review("g-4", 5, "2024-02-18T12:00:00Z", "positive", ""),
			review("g-5", 1, "2024-03-02T12:00:00Z", "negative", "Cold food"),
			review("g-6", 1, "2024-03-22T12:00:00Z", "negative", "Rude service"),
		},
	}
}

func seeded(t *testing.T) (http.Handler, string) {
	t.Helper()
	h := newTestRouter(t, RouterConfig{ResponseMaxAge: time.Minute})
	id := createBusiness(t, h, "Cafe Luna")
	rec := do(t, h, http.MethodPost, "/api/v1/reviews", decliningBatch(id))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return h, id
}

// =============================================================================
// Businesses
// =============================================================================

func TestBusinesses_CreateGetList(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})
	id := createBusiness(t, h, "  Cafe Luna ")

	rec := do(t, h, http.MethodGet, "/api/v1/businesses/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}](t, rec)
	assert.Equal(t, id, got.Data.ID)
	assert.Equal(t, "Cafe Luna", got.Data.Name)

	createBusiness(t, h, "Bakery Sol")
	rec = do(t, h, http.MethodGet, "/api/v1/businesses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]struct {
		Name string `json:"name"`
	}](t, rec)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Bakery Sol", list.Data[0].Name)
}

func TestBusinesses_CreateValidation(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodPost, "/api/v1/businesses", map[string]string{"category": "cafe"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[any](t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "name")
}

func TestBusinesses_GetErrors(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodGet, "/api/v1/businesses/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/businesses/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, rec).Error.Code)
}

// =============================================================================
// Reviews
// =============================================================================

func TestReviews_IngestSkipsDuplicates(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodPost, "/api/v1/reviews", decliningBatch(id))
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decode[service.IngestResult](t, rec)
	assert.Zero(t, res.Data.Inserted)
	assert.Equal(t, 6, res.Data.Skipped)
}

func TestReviews_IngestValidation(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})
	id := createBusiness(t, h, "Cafe Luna")

	rec := do(t, h, http.MethodPost, "/api/v1/reviews", map[string]any{
		"business_id": id,
		"reviews":     []map[string]any{{"stars": 9}, {"stars": 4, "sentiment": "ecstatic"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[any](t, rec)
	assert.Contains(t, env.Error.Fields, "reviews[0].stars")
	assert.Contains(t, env.Error.Fields, "reviews[1].sentiment")

	rec = do(t, h, http.MethodPost, "/api/v1/reviews", map[string]any{"business_id": "abc", "reviews": []map[string]any{{"stars": 3}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReviews_IngestUnknownBusiness(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})
	rec := do(t, h, http.MethodPost, "/api/v1/reviews", map[string]any{
		"business_id": uuid.NewString(),
		"reviews":     []map[string]any{{"stars": 3}},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviews_ListPaginated(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/reviews?business_id="+id+"&per_page=2&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []struct {
			ExternalID string `json:"external_id"`
		} `json:"data"`
		TotalCount int  `json:"total_count"`
		HasNext    bool `json:"has_next"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, 6, page.TotalCount)
	assert.True(t, page.HasNext)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "g-4", page.Data[0].ExternalID)
}

// =============================================================================
// Analytics
// =============================================================================

func TestAnalytics_Report(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/report?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "private, max-age=60", rec.Header().Get("Cache-Control"))

	rep := decode[analytics.Report](t, rec).Data
	assert.Equal(t, 6, rep.Summary.Count)
	assert.InDelta(t, 11.0/3, rep.Summary.AvgRating, 1e-9)
	assert.Equal(t, [5]int{2, 0, 0, 0, 4}, [5]int(rep.Distribution))
	require.NotEmpty(t, rep.Risks)
	assert.Equal(t, analytics.RiskRatingDecline, rep.Risks[0].Kind)
}

func TestAnalytics_ReportReflectsNewReviews(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/report?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[analytics.Report](t, rec).Data.Summary.Count)

	rec = do(t, h, http.MethodPost, "/api/v1/reviews", map[string]any{
		"business_id": id,
		"reviews":     []map[string]any{{"external_id": "g-7", "stars": 4, "published_at": "2024-03-25"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/report?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, decode[analytics.Report](t, rec).Data.Summary.Count)
}

func TestAnalytics_ZeroHorizonMeansNoForecast(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/report?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[analytics.Report](t, rec).Data.RatingTrend.Forecast(), analytics.DefaultHorizon)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/report?horizon=0&business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[analytics.Report](t, rec).Data
	assert.Empty(t, rep.RatingTrend.Forecast())
	assert.Len(t, rep.RatingTrend.Historical(), 3)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/trend?horizon=0&business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[analytics.TrendSeries](t, rec).Data.Forecast())
}

func TestAnalytics_Groups(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/groups?granularity=month&business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[analytics.Grouping](t, rec).Data
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, g.Labels())

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/groups?granularity=fortnight", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[any](t, rec).Error.Message, "fortnight")
}

func TestAnalytics_Trend(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/trend?metric=rating&granularity=month&horizon=2&business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[analytics.TrendSeries](t, rec).Data
	assert.Equal(t, analytics.Decreasing, series.Trend.Direction)
	assert.Len(t, series.Forecast(), 2)

	for _, bad := range []string{"horizon=99", "horizon=abc", "metric=likes"} {
		rec = do(t, h, http.MethodGet, "/api/v1/analytics/trend?"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestAnalytics_Risks(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/risks?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	risks := decode[[]analytics.RiskIndicator](t, rec).Data
	require.NotEmpty(t, risks)
	assert.Equal(t, analytics.SeverityCritical, risks[0].Severity)
}

func TestAnalytics_Compare(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/compare?business_id="+id, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/compare?from=2024-03-01&to=2024-03-31&business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[service.ComparisonResult](t, rec).Data
	assert.Equal(t, service.BaselinePrevious, res.Baseline)
	assert.True(t, res.Current.To.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)), res.Current.To)
	assert.InDelta(t, 1.0, res.Comparison.Rating.Current, 1e-9)
	assert.InDelta(t, 5.0, res.Comparison.Rating.Previous, 1e-9)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/compare?from=2024-03-01&to=2024-03-31&baseline=last_week", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics_Clusters(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/clusters?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode[analytics.Clusters](t, rec).Data
	assert.NotEmpty(t, c.Themes)
	assert.NotEmpty(t, c.Length)
}

func TestAnalytics_RecommendationsFallback(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/recommendations?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope[struct {
		Source string `json:"source"`
		Reason string `json:"reason"`
	}]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "fallback", env.Data.Source)
	assert.NotEmpty(t, env.Data.Reason)
}

func TestAnalytics_Export(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/export?format=html&recommendations=true&business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="stargazer-`+id))
	assert.Contains(t, rec.Body.String(), "Cafe Luna review report")
	assert.Contains(t, rec.Body.String(), "<h2>Recommendations</h2>")

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/export?format=pdf", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics_Snapshots(t *testing.T) {
	h, id := seeded(t)

	rec := do(t, h, http.MethodPost, "/api/v1/analytics/snapshots?from=2024-01-01&to=2024-03-31&business_id="+id, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap := decode[struct {
		ID          string `json:"id"`
		ReviewCount int    `json:"review_count"`
		RiskCount   int    `json:"risk_count"`
	}](t, rec).Data
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 6, snap.ReviewCount)
	assert.Positive(t, snap.RiskCount)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/snapshots?business_id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]struct {
		ID string `json:"id"`
	}](t, rec).Data
	require.Len(t, list, 1)
	assert.Equal(t, snap.ID, list[0].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/analytics/snapshots?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics_QueryValidation(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})

	for _, q := range []string{
		"business_id=not-a-uuid",
		"from=yesterday",
		"from=2024-03-01&to=2024-01-01",
		"to=2024-13-01",
	} {
		rec := do(t, h, http.MethodGet, "/api/v1/analytics/report?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Equal(t, "INVALID_INPUT", decode[any](t, rec).Error.Code, q)
	}
}

func TestAnalytics_EmptyStore(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodGet, "/api/v1/analytics/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[analytics.Report](t, rec).Data
	assert.Zero(t, rep.Summary.Count)
	assert.Empty(t, rep.Risks)
}

// =============================================================================
// Infrastructure routes and middleware
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/ready", nil).Code)

	do(t, h, http.MethodGet, "/api/v1/businesses", nil)
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestCorrelationIDEchoed(t *testing.T) {
	h := newTestRouter(t, RouterConfig{})
	rec := do(t, h, http.MethodGet, "/api/v1/businesses", nil, "X-Correlation-ID", "corr-42")
	assert.Equal(t, "corr-42", rec.Header().Get("X-Correlation-ID"))
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	h := newTestRouter(t, RouterConfig{JWTSecret: secret})

	rec := do(t, h, http.MethodGet, "/api/v1/businesses", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health/live", nil).Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "owner@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/api/v1/businesses", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, RouterConfig{RateLimitRPS: 1, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/v1/businesses", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/api/v1/businesses", nil).Code)
}
