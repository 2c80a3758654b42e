package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

// BusinessRepository implements business persistence on SQLite.
type BusinessRepository struct {
	db *sql.DB
}

// NewBusinessRepository creates a SQLite-backed business repository.
func NewBusinessRepository(d *DB) *BusinessRepository {
	return &BusinessRepository{db: d.db}
}

// Create inserts a new business.
func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) (err error) {
	query := `INSERT INTO businesses (id, name, category, location, created_at) VALUES (?, ?, ?, ?, ?)`

	ctx, end := database.Trace(ctx, "sqlite", "CreateBusiness", query)
	defer func() { end(err) }()

	_, err = r.db.ExecContext(ctx, query, b.ID, b.Name, b.Category, b.Location, formatTime(b.CreatedAt))
	if err != nil {
		if isConstraint(err, "UNIQUE") {
			return apperrors.AlreadyExists("business", "id", b.ID)
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// GetByID retrieves a business by its ID.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (_ *domain.Business, err error) {
	query := `SELECT id, name, category, location, created_at FROM businesses WHERE id = ?`

	ctx, end := database.Trace(ctx, "sqlite", "GetBusiness", query)
	defer func() { end(err) }()

	b, err := scanBusiness(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("business", id)
		}
		return nil, fmt.Errorf("get business by id: %w", err)
	}
	return b, nil
}

// List returns all businesses ordered by name.
func (r *BusinessRepository) List(ctx context.Context) (_ []domain.Business, err error) {
	query := `SELECT id, name, category, location, created_at FROM businesses ORDER BY name, id`

	ctx, end := database.Trace(ctx, "sqlite", "ListBusinesses", query)
	defer func() { end(err) }()

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	businesses := []domain.Business{}
	for rows.Next() {
		b, scanErr := scanBusiness(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan business row: %w", scanErr)
			return nil, err
		}
		businesses = append(businesses, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business rows: %w", err)
	}
	return businesses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row rowScanner) (*domain.Business, error) {
	var (
		b       domain.Business
		created string
	)
	if err := row.Scan(&b.ID, &b.Name, &b.Category, &b.Location, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = t
	return &b, nil
}
