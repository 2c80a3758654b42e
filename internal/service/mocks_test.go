package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/event"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	pkgkafka "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/kafka"
)

// --- Mock Repositories ---

type mockBusinessRepository struct {
	mock.Mock
}

func (m *mockBusinessRepository) Create(ctx context.Context, b *domain.Business) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBusinessRepository) GetByID(ctx context.Context, id string) (*domain.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Business), args.Error(1)
}

func (m *mockBusinessRepository) List(ctx context.Context) ([]domain.Business, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Business), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) List(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListPage(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) CreateBatch(ctx context.Context, reviews []domain.Review) (int, error) {
	args := m.Called(ctx, reviews)
	return args.Int(0), args.Error(1)
}

type mockSnapshotRepository struct {
	mock.Mock
}

func (m *mockSnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSnapshotRepository) ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Snapshot, error) {
	args := m.Called(ctx, businessID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Snapshot), args.Error(1)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) InvalidateBusiness(ctx context.Context, businessID string) error {
	args := m.Called(ctx, businessID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) topics() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.msgs))
	for i, m := range w.msgs {
		out[i] = m.Topic
	}
	return out
}

func newTestProducer() (*event.Producer, *recordingWriter) {
	w := &recordingWriter{}
	return event.NewProducer(pkgkafka.NewProducerWithWriter(w, newTestLogger()), newTestLogger()), w
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// decliningReviews rates two 5 star reviews in each of January and February
// and two 1 star reviews in March.
func decliningReviews() []domain.Review {
	mk := func(id string, stars int, t time.Time, s domain.Sentiment, text string) domain.Review {
		return domain.Review{ID: id, BusinessID: "b1", Stars: stars, PublishedAt: t, Sentiment: s, Text: text}
	}
	return []domain.Review{
		mk("r1", 5, at(2024, 1, 5), domain.SentimentPositive, "Lovely coffee"),
		mk("r2", 5, at(2024, 1, 20), domain.SentimentPositive, ""),
		mk("r3", 5, at(2024, 2, 3), domain.SentimentPositive, "Great staff"),
		mk("r4", 5, at(2024, 2, 18), domain.SentimentPositive, ""),
		mk("r5", 1, at(2024, 3, 2), domain.SentimentNegative, "Cold food"),
		mk("r6", 1, at(2024, 3, 22), domain.SentimentNegative, "Rude service"),
	}
}
