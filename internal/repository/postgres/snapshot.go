package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
)

// SnapshotRepository implements report snapshot persistence using PostgreSQL.
type SnapshotRepository struct {
	pool database.DBTX
}

// NewSnapshotRepository creates a new PostgreSQL-backed snapshot repository.
func NewSnapshotRepository(pool database.DBTX) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save inserts a snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) (err error) {
	query := `
		INSERT INTO report_snapshots (id, business_id, range_from, range_to, review_count,
		                              avg_rating, risk_count, report, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "SaveSnapshot", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.BusinessID,
		nullTime(s.From),
		nullTime(s.To),
		s.ReviewCount,
		s.AvgRating,
		s.RiskCount,
		[]byte(s.Report),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListByBusiness returns the newest snapshots for businessID.
func (r *SnapshotRepository) ListByBusiness(ctx context.Context, businessID string, limit int) (_ []domain.Snapshot, err error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, business_id, range_from, range_to, review_count, avg_rating, risk_count,
		       report, created_at
		FROM report_snapshots
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListSnapshots", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, businessID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.Snapshot{}
	for rows.Next() {
		var (
			s        domain.Snapshot
			from, to *time.Time
			report   []byte
		)
		if err = rows.Scan(&s.ID, &s.BusinessID, &from, &to, &s.ReviewCount, &s.AvgRating,
			&s.RiskCount, &report, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if from != nil {
			s.From = from.UTC()
		}
		if to != nil {
			s.To = to.UTC()
		}
		s.Report = report
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}
