package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/event"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/pagination"
)

// MaxIngestBatch bounds the number of reviews accepted per ingest call.
const MaxIngestBatch = 500

// ReviewService implements review ingestion and listing.
type ReviewService struct {
	reviews      repository.ReviewRepository
	businesses   repository.BusinessRepository
	producer     *event.Producer
	invalidators []event.Invalidator
	logger       *slog.Logger
}

// NewReviewService creates a new review service. Invalidators are run
// synchronously after a successful ingest, before review.ingested is
// published for other replicas.
func NewReviewService(
	reviews repository.ReviewRepository,
	businesses repository.BusinessRepository,
	producer *event.Producer,
	logger *slog.Logger,
	invalidators ...event.Invalidator,
) *ReviewService {
	return &ReviewService{
		reviews:      reviews,
		businesses:   businesses,
		producer:     producer,
		invalidators: invalidators,
		logger:       logger,
	}
}

// ReviewInput is one review to ingest. PublishedAt accepts the formats of
// domain.ParseReviewDate; unparsable dates are stored as undated.
type ReviewInput struct {
	ExternalID        string
	Stars             int
	Text              string
	Sentiment         string
	PublishedAt       string
	OwnerResponseText string
	MainThemes        string
	StaffMentioned    string
}

// IngestResult reports what an ingest call stored.
type IngestResult struct {
	BusinessID string   `json:"business_id"`
	Inserted   int      `json:"inserted"`
	Skipped    int      `json:"skipped"`
	Undated    int      `json:"undated"`
	ReviewIDs  []string `json:"review_ids"`
}

// IngestReviews stores reviews for businessID. Reviews whose external ID is
// already stored for the business are skipped.
func (s *ReviewService) IngestReviews(ctx context.Context, businessID string, inputs []ReviewInput) (*IngestResult, error) {
	if len(inputs) == 0 {
		return nil, apperrors.InvalidInput("at least one review is required")
	}
	if len(inputs) > MaxIngestBatch {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d reviews per request", MaxIngestBatch))
	}
	if _, err := s.businesses.GetByID(ctx, businessID); err != nil {
		return nil, fmt.Errorf("get business by id: %w", err)
	}

	now := time.Now().UTC()
	result := &IngestResult{BusinessID: businessID, ReviewIDs: make([]string, 0, len(inputs))}
	reviews := make([]domain.Review, 0, len(inputs))
	for i, in := range inputs {
		if in.Stars < 1 || in.Stars > 5 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("review %d: stars must be between 1 and 5", i))
		}
		r := domain.Review{
			ID:                uuid.New().String(),
			BusinessID:        businessID,
			ExternalID:        in.ExternalID,
			Stars:             in.Stars,
			Text:              in.Text,
			Sentiment:         domain.ParseSentiment(in.Sentiment),
			PublishedAt:       domain.ParseReviewDate(in.PublishedAt),
			OwnerResponseText: in.OwnerResponseText,
			MainThemes:        in.MainThemes,
			StaffMentioned:    in.StaffMentioned,
			CreatedAt:         now,
		}
		if !r.HasDate() {
			result.Undated++
		}
		reviews = append(reviews, r)
		result.ReviewIDs = append(result.ReviewIDs, r.ID)
	}

	inserted, err := s.reviews.CreateBatch(ctx, reviews)
	if err != nil {
		return nil, fmt.Errorf("store reviews: %w", err)
	}
	result.Inserted = inserted
	result.Skipped = len(reviews) - inserted
	reviewsIngested.Add(float64(inserted))

	if inserted > 0 {
		s.invalidate(ctx, businessID)
		if err := s.producer.PublishReviewIngested(ctx, event.ReviewIngestedData{
			BusinessID: businessID,
			Inserted:   inserted,
			Skipped:    result.Skipped,
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.ingested event",
				slog.String("business_id", businessID),
				slog.String("error", err.Error()),
			)
			// Do not fail the ingest if event publishing fails.
		}
	}

	s.logger.InfoContext(ctx, "reviews ingested",
		slog.String("business_id", businessID),
		slog.Int("inserted", result.Inserted),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *ReviewService) invalidate(ctx context.Context, businessID string) {
	for _, inv := range s.invalidators {
		if err := inv.InvalidateBusiness(ctx, businessID); err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed",
				slog.String("business_id", businessID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ListReviews returns a page of reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, business domain.BusinessFilter, params pagination.Params) (pagination.Result[domain.Review], error) {
	reviews, total, err := s.reviews.ListPage(ctx, repository.ReviewFilter{
		Business: business,
		Page:     params.Page,
		PerPage:  params.PerPage,
	})
	if err != nil {
		return pagination.Result[domain.Review]{}, fmt.Errorf("list reviews: %w", err)
	}
	return pagination.NewResult(reviews, total, params), nil
}
