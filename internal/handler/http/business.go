package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/httputil"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/validator"
)

// BusinessHandler handles HTTP requests for business endpoints.
type BusinessHandler struct {
	service *service.BusinessService
	logger  *slog.Logger
}

// NewBusinessHandler creates a new business HTTP handler.
func NewBusinessHandler(svc *service.BusinessService, logger *slog.Logger) *BusinessHandler {
	return &BusinessHandler{service: svc, logger: logger}
}

// CreateBusinessRequest is the JSON request body for creating a business.
type CreateBusinessRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"max=100"`
	Location string `json:"location" validate:"max=200"`
}

// ListBusinesses handles GET /api/v1/businesses
func (h *BusinessHandler) ListBusinesses(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListBusinesses(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// GetBusiness handles GET /api/v1/businesses/{id}
func (h *BusinessHandler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	b, err := h.service.GetBusiness(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: b})
}

// CreateBusiness handles POST /api/v1/businesses
func (h *BusinessHandler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBusinessRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	b, err := h.service.CreateBusiness(r.Context(), &service.CreateBusinessInput{
		Name:     req.Name,
		Category: req.Category,
		Location: req.Location,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: b})
}
