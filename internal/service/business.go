package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

// BusinessService implements the business logic for business operations.
type BusinessService struct {
	repo   repository.BusinessRepository
	logger *slog.Logger
}

// NewBusinessService creates a new business service.
func NewBusinessService(repo repository.BusinessRepository, logger *slog.Logger) *BusinessService {
	return &BusinessService{repo: repo, logger: logger}
}

// CreateBusinessInput holds the parameters for creating a business.
type CreateBusinessInput struct {
	Name     string
	Category string
	Location string
}

// CreateBusiness creates a new business.
func (s *BusinessService) CreateBusiness(ctx context.Context, input *CreateBusinessInput) (*domain.Business, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("business name is required")
	}

	b := &domain.Business{
		ID:        uuid.New().String(),
		Name:      name,
		Category:  strings.TrimSpace(input.Category),
		Location:  strings.TrimSpace(input.Location),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}

	s.logger.InfoContext(ctx, "business created",
		slog.String("business_id", b.ID),
		slog.String("name", b.Name),
	)
	return b, nil
}

// GetBusiness retrieves a business by its ID.
func (s *BusinessService) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get business by id: %w", err)
	}
	return b, nil
}

// ListBusinesses returns every business.
func (s *BusinessService) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return list, nil
}
