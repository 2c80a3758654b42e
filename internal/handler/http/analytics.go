package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/report"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httputil"
)

// AnalyticsHandler serves the /api/v1/analytics endpoints. Every endpoint
// accepts business_id (absent for all businesses), from and to.
type AnalyticsHandler struct {
	analytics  *service.AnalyticsService
	businesses *service.BusinessService
	exporter   *report.Exporter
	logger     *slog.Logger
}

// NewAnalyticsHandler creates a new analytics HTTP handler.
func NewAnalyticsHandler(
	analyticsService *service.AnalyticsService,
	businessService *service.BusinessService,
	exporter *report.Exporter,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics:  analyticsService,
		businesses: businessService,
		exporter:   exporter,
		logger:     logger,
	}
}

func (h *AnalyticsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, r, err, h.logger)
}

func (h *AnalyticsHandler) analyzeOptions(r *http.Request) (analytics.AnalyzeOptions, error) {
	g, err := parseGranularity(r)
	if err != nil {
		return analytics.AnalyzeOptions{}, err
	}
	horizon, err := parseInt(r, "horizon", analytics.DefaultHorizon)
	if err != nil {
		return analytics.AnalyzeOptions{}, err
	}
	ref, err := parseTime("reference", r.URL.Query().Get("reference"), false)
	if err != nil {
		return analytics.AnalyzeOptions{}, err
	}
	return analytics.AnalyzeOptions{Granularity: g, Horizon: horizon, Reference: ref}, nil
}

// Report handles GET /api/v1/analytics/report
// Optional: granularity, horizon, reference.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	opts, err := h.analyzeOptions(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rep, err := h.analytics.Report(r.Context(), q, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rep})
}

// Groups handles GET /api/v1/analytics/groups?granularity=
func (h *AnalyticsHandler) Groups(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := parseGranularity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	grouping, err := h.analytics.Group(r.Context(), q, g)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: grouping})
}

// Trend handles GET /api/v1/analytics/trend?metric=&granularity=&horizon=
func (h *AnalyticsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	m, err := parseMetric(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	g, err := parseGranularity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	horizon, err := parseInt(r, "horizon", analytics.DefaultHorizon)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	series, err := h.analytics.Trend(r.Context(), q, m, g, horizon)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: series})
}

// Risks handles GET /api/v1/analytics/risks?reference=
func (h *AnalyticsHandler) Risks(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ref, err := parseTime("reference", r.URL.Query().Get("reference"), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	risks, err := h.analytics.Risks(r.Context(), q, ref)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: risks})
}

// Compare handles GET /api/v1/analytics/compare?baseline=previous|year_ago
func (h *AnalyticsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	baseline, err := service.ParseBaseline(r.URL.Query().Get("baseline"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.analytics.Compare(r.Context(), q, baseline)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Clusters handles GET /api/v1/analytics/clusters
func (h *AnalyticsHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	clusters, err := h.analytics.Clusters(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: clusters})
}

// Recommendations handles GET /api/v1/analytics/recommendations
func (h *AnalyticsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.analytics.Recommendations(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Export handles GET /api/v1/analytics/export?format=json|html|pdf
// recommendations=true adds the recommendation section.
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if format == report.FormatPDF && !h.exporter.PDFEnabled() {
		h.fail(w, r, apperrors.NotImplemented("pdf export is not configured"))
		return
	}
	opts, err := h.analyzeOptions(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	doc := report.Document{Business: q.Business, Range: q.Range, GeneratedAt: time.Now().UTC()}
	if !q.Business.IsAll() {
		b, err := h.businesses.GetBusiness(r.Context(), q.Business.ID())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		doc.BusinessName = b.Name
	}

	rep, err := h.analytics.Report(r.Context(), q, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	doc.Report = *rep

	if parseBool(r, "recommendations") {
		rec, err := h.analytics.Recommendations(r.Context(), q)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		doc.Recommendations = rec
	}

	file, err := h.exporter.Export(r.Context(), format, doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteAttachment(w, file.ContentType, file.Filename, file.Body)
}

// ListSnapshots handles GET /api/v1/analytics/snapshots?limit=
func (h *AnalyticsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	business, err := businessFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := parseInt(r, "limit", defaultSnapshotLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if limit < 1 || limit > maxSnapshotLimit {
		h.fail(w, r, apperrors.InvalidInput(fmt.Sprintf("limit must be between 1 and %d", maxSnapshotLimit)))
		return
	}

	list, err := h.analytics.ListSnapshots(r.Context(), business, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// CreateSnapshot handles POST /api/v1/analytics/snapshots. The optional
// reference parameter selects the month seasonal risk is judged against.
func (h *AnalyticsHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q.Reference, err = parseTime("reference", r.URL.Query().Get("reference"), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	snap, err := h.analytics.CreateSnapshot(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: snap})
}
