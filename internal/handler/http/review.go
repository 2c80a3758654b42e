package http

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httputil"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/pagination"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// ReviewRequest is one review in an ingest batch.
type ReviewRequest struct {
	ExternalID        string `json:"external_id" validate:"max=200"`
	Stars             int    `json:"stars" validate:"required,gte=1,lte=5"`
	Text              string `json:"text" validate:"max=20000"`
	Sentiment         string `json:"sentiment" validate:"sentiment"`
	PublishedAt       string `json:"published_at" validate:"max=64"`
	OwnerResponseText string `json:"owner_response_text" validate:"max=20000"`
	MainThemes        string `json:"main_themes" validate:"max=1000"`
	StaffMentioned    string `json:"staff_mentioned" validate:"max=1000"`
}

// IngestReviewsRequest is the JSON request body for POST /api/v1/reviews.
type IngestReviewsRequest struct {
	BusinessID string          `json:"business_id" validate:"required,uuid"`
	Reviews    []ReviewRequest `json:"reviews" validate:"required,min=1,max=500,dive"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	business, err := businessFilter(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.ListReviews(r.Context(), business, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// IngestReviews handles POST /api/v1/reviews
func (h *ReviewHandler) IngestReviews(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16<<20)

	var req IngestReviewsRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	inputs := make([]service.ReviewInput, len(req.Reviews))
	for i, rv := range req.Reviews {
		inputs[i] = service.ReviewInput{
			ExternalID:        rv.ExternalID,
			Stars:             rv.Stars,
			Text:              rv.Text,
			Sentiment:         rv.Sentiment,
			PublishedAt:       rv.PublishedAt,
			OwnerResponseText: rv.OwnerResponseText,
			MainThemes:        rv.MainThemes,
			StaffMentioned:    rv.StaffMentioned,
		}
	}

	businessID, _ := uuid.Parse(req.BusinessID)
	result, err := h.service.IngestReviews(r.Context(), businessID.String(), inputs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}
