package repository

import (
	"context"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

// ReviewFilter defines filter criteria for paginated review listing.
type ReviewFilter struct {
	Business domain.BusinessFilter
	Page     int
	PerPage  int
}

// BusinessRepository defines the interface for business persistence operations.
type BusinessRepository interface {
	// Create inserts a new business.
	Create(ctx context.Context, business *domain.Business) error

	// GetByID retrieves a business by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Business, error)

	// List returns every business ordered by name.
	List(ctx context.Context) ([]domain.Business, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// List returns every review matching q, oldest first. Undated reviews
	// are included only when the range has no lower bound.
	List(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, error)

	// ListPage returns one page of reviews, newest first, with the total count.
	ListPage(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// CreateBatch inserts reviews in one transaction, skipping any whose
	// (business, external id) pair is already stored. It returns the number
	// of inserted rows.
	CreateBatch(ctx context.Context, reviews []domain.Review) (int, error)
}

// SnapshotRepository defines the interface for report snapshot persistence.
type SnapshotRepository interface {
	// Save inserts a snapshot.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// ListByBusiness returns the newest snapshots for a business, at most limit.
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]domain.Snapshot, error)
}

// ReportCache stores rendered analytics results keyed by business and query.
type ReportCache interface {
	// Get decodes the cached value for key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// InvalidateBusiness drops every entry derived from businessID, including
	// the all-businesses entries.
	InvalidateBusiness(ctx context.Context, businessID string) error
}

// ReportKey builds the ReportCache key for a result of the given kind. Keys
// start with the business segment so InvalidateBusiness can drop them by prefix.
func ReportKey(business domain.BusinessFilter, kind, detail string) string {
	return business.String() + ":" + kind + ":" + detail
}

// BusinessKeyPrefix is the ReportKey prefix shared by every entry of a business.
func BusinessKeyPrefix(business domain.BusinessFilter) string {
	return business.String() + ":"
}
