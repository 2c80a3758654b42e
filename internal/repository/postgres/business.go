package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

// BusinessRepository implements business persistence operations using PostgreSQL.
type BusinessRepository struct {
	pool database.DBTX
}

// NewBusinessRepository creates a new PostgreSQL-backed business repository.
func NewBusinessRepository(pool database.DBTX) *BusinessRepository {
	return &BusinessRepository{pool: pool}
}

// Create inserts a new business into the database.
func (r *BusinessRepository) Create(ctx context.Context, b *domain.Business) (err error) {
	query := `
		INSERT INTO businesses (id, name, category, location, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateBusiness", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query, b.ID, b.Name, b.Category, b.Location, b.CreatedAt)
	if err != nil {
		if hasSQLState(err, sqlStateUniqueViolation) {
			return apperrors.AlreadyExists("business", "id", b.ID)
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

// GetByID retrieves a business by its ID.
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (_ *domain.Business, err error) {
	query := `
		SELECT id, name, category, location, created_at
		FROM businesses
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetBusiness", query)
	defer func() { end(err) }()

	var b domain.Business
	err = r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Name, &b.Category, &b.Location, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("business", id)
		}
		return nil, fmt.Errorf("get business by id: %w", err)
	}
	return &b, nil
}

// List returns all businesses ordered by name.
func (r *BusinessRepository) List(ctx context.Context) (_ []domain.Business, err error) {
	query := `
		SELECT id, name, category, location, created_at
		FROM businesses
		ORDER BY name, id`

	ctx, end := database.TraceQuery(ctx, "ListBusinesses", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	businesses := []domain.Business{}
	for rows.Next() {
		var b domain.Business
		if err = rows.Scan(&b.ID, &b.Name, &b.Category, &b.Location, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan business row: %w", err)
		}
		businesses = append(businesses, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate business rows: %w", err)
	}
	return businesses, nil
}
