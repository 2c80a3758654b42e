package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
)

// SnapshotRepository implements report snapshot persistence on SQLite.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a SQLite-backed snapshot repository.
func NewSnapshotRepository(d *DB) *SnapshotRepository {
	return &SnapshotRepository{db: d.db}
}

// Save inserts a snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, s *domain.Snapshot) (err error) {
	query := `INSERT INTO report_snapshots (id, business_id, range_from, range_to, review_count,
		avg_rating, risk_count, report, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ctx, end := database.Trace(ctx, "sqlite", "SaveSnapshot", query)
	defer func() { end(err) }()

	_, err = r.db.ExecContext(ctx, query, s.ID, s.BusinessID, nullTime(s.From), nullTime(s.To),
		s.ReviewCount, s.AvgRating, s.RiskCount, string(s.Report), formatTime(s.CreatedAt))
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
	query := `SELECT id, business_id, range_from, range_to, review_count, avg_rating, risk_count,
		report, created_at FROM report_snapshots WHERE business_id = ? ORDER BY created_at DESC LIMIT ?`

	ctx, end := database.Trace(ctx, "sqlite", "ListSnapshots", query)
	defer func() { end(err) }()

	rows, err := r.db.QueryContext(ctx, query, businessID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []domain.Snapshot{}
	for rows.Next() {
		var (
			s               domain.Snapshot
			from, to        sql.NullString
			report, created string
		)
		if err = rows.Scan(&s.ID, &s.BusinessID, &from, &to, &s.ReviewCount, &s.AvgRating,
			&s.RiskCount, &report, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if s.From, err = parseNullTime(from); err != nil {
			return nil, err
		}
		if s.To, err = parseNullTime(to); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		s.Report = []byte(report)
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}
