package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/event"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/pagination"
)

type reviewFixture struct {
	reviews    *mockReviewRepository
	businesses *mockBusinessRepository
	inv        *mockInvalidator
	writer     *recordingWriter
	svc        *ReviewService
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		reviews:    new(mockReviewRepository),
		businesses: new(mockBusinessRepository),
		inv:        new(mockInvalidator),
	}
	var producer *event.Producer
	producer, f.writer = newTestProducer()
	f.svc = NewReviewService(f.reviews, f.businesses, producer, newTestLogger(), f.inv)
	return f
}

func TestIngestReviews_Success(t *testing.T) {
	f := newReviewFixture()
	f.businesses.On("GetByID", mock.Anything, "b1").Return(&domain.Business{ID: "b1"}, nil)
	f.reviews.On("CreateBatch", mock.Anything, mock.MatchedBy(func(rs []domain.Review) bool {
		return len(rs) == 3 &&
			rs[0].Sentiment == domain.SentimentPositive &&
			rs[0].PublishedAt.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			!rs[2].HasDate() &&
			rs[1].BusinessID == "b1"
	})).Return(2, nil)
	f.inv.On("InvalidateBusiness", mock.Anything, "b1").Return(nil)

	res, err := f.svc.IngestReviews(context.Background(), "b1", []ReviewInput{
		{ExternalID: "g-1", Stars: 5, Sentiment: "Positive", PublishedAt: "2024-03-01"},
		{ExternalID: "g-2", Stars: 2, PublishedAt: "2024-03-02"},
		{ExternalID: "g-3", Stars: 3, PublishedAt: "last tuesday"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Undated)
	assert.Len(t, res.ReviewIDs, 3)

	assert.Equal(t, []string{event.TopicReviewIngested}, f.writer.topics())
	f.reviews.AssertExpectations(t)
	f.inv.AssertExpectations(t)
}

func TestIngestReviews_AllDuplicatesSkipsSideEffects(t *testing.T) {
	f := newReviewFixture()
	f.businesses.On("GetByID", mock.Anything, "b1").Return(&domain.Business{ID: "b1"}, nil)
	f.reviews.On("CreateBatch", mock.Anything, mock.Anything).Return(0, nil)

	res, err := f.svc.IngestReviews(context.Background(), "b1", []ReviewInput{{ExternalID: "g-1", Stars: 5}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, f.writer.topics())
	f.inv.AssertNotCalled(t, "InvalidateBusiness", mock.Anything, mock.Anything)
}

func TestIngestReviews_InvalidationFailureIsNotFatal(t *testing.T) {
	f := newReviewFixture()
	f.businesses.On("GetByID", mock.Anything, "b1").Return(&domain.Business{ID: "b1"}, nil)
	f.reviews.On("CreateBatch", mock.Anything, mock.Anything).Return(1, nil)
	f.inv.On("InvalidateBusiness", mock.Anything, "b1").Return(errors.New("redis down"))

	_, err := f.svc.IngestReviews(context.Background(), "b1", []ReviewInput{{Stars: 4}})
	assert.NoError(t, err)
}

func TestIngestReviews_Validation(t *testing.T) {
	tests := []struct {
		name   string
		inputs []ReviewInput
	}{
		{"empty", nil},
		{"too many", make([]ReviewInput, MaxIngestBatch+1)},
		{"stars too low", []ReviewInput{{Stars: 0}}},
		{"stars too high", []ReviewInput{{Stars: 4}, {Stars: 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture()
			f.businesses.On("GetByID", mock.Anything, "b1").Return(&domain.Business{ID: "b1"}, nil)

			_, err := f.svc.IngestReviews(context.Background(), "b1", tt.inputs)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			f.reviews.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
		})
	}
}

func TestIngestReviews_UnknownBusiness(t *testing.T) {
	f := newReviewFixture()
	f.businesses.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.NotFound("business", "ghost"))

	_, err := f.svc.IngestReviews(context.Background(), "ghost", []ReviewInput{{Stars: 5}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestIngestReviews_StoreError(t *testing.T) {
	f := newReviewFixture()
	f.businesses.On("GetByID", mock.Anything, "b1").Return(&domain.Business{ID: "b1"}, nil)
	f.reviews.On("CreateBatch", mock.Anything, mock.Anything).Return(0, errors.New("tx aborted"))

	_, err := f.svc.IngestReviews(context.Background(), "b1", []ReviewInput{{Stars: 5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store reviews")
}

func TestListReviews(t *testing.T) {
	f := newReviewFixture()
	filter := repository.ReviewFilter{Business: domain.ForBusiness("b1"), Page: 2, PerPage: 2}
	f.reviews.On("ListPage", mock.Anything, filter).Return([]domain.Review{{ID: "r3"}, {ID: "r4"}}, 5, nil)

	res, err := f.svc.ListReviews(context.Background(), domain.ForBusiness("b1"), pagination.Params{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.True(t, res.HasPrev)
	assert.Len(t, res.Data, 2)
}
