package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

const reviewColumns = `r.id, r.business_id, b.name, COALESCE(r.external_id, ''), r.stars, r.text,
		       r.sentiment, r.published_at, r.owner_response_text, r.main_themes,
		       r.staff_mentioned, r.created_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.TxPool
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.TxPool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// List returns the reviews matching q, oldest first with undated reviews last.
func (r *ReviewRepository) List(ctx context.Context, q domain.ReviewQuery) (_ []domain.Review, err error) {
	var (
		conditions []string
		args       []any
		argIdx     = 1
	)

	if !q.Business.IsAll() {
		conditions = append(conditions, fmt.Sprintf("r.business_id = $%d", argIdx))
		args = append(args, q.Business.ID())
		argIdx++
	}
	if !q.Range.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("r.published_at >= $%d", argIdx))
		args = append(args, q.Range.From)
		argIdx++
	}
	if !q.Range.To.IsZero() {
		// Undated reviews stay in an open-start range.
		conditions = append(conditions, fmt.Sprintf("(r.published_at < $%d OR r.published_at IS NULL)", argIdx))
		args = append(args, q.Range.To)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews r
		JOIN businesses b ON b.id = r.business_id
		%s
		ORDER BY r.published_at ASC NULLS LAST, r.id`, reviewColumns, where)

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows, nil)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListPage returns a page of reviews, newest first, along with the total count.
func (r *ReviewRepository) ListPage(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, _ int, err error) {
	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args := []any{limit, offset}
	where := ""
	if !filter.Business.IsAll() {
		where = "WHERE r.business_id = $3"
		args = append(args, filter.Business.ID())
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM reviews r
		JOIN businesses b ON b.id = r.business_id
		%s
		ORDER BY r.published_at DESC NULLS LAST, r.created_at DESC, r.id
		LIMIT $1 OFFSET $2`, reviewColumns, where)

	ctx, end := database.TraceQuery(ctx, "ListReviewsPage", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews page: %w", err)
	}
	defer rows.Close()

	var total int
	reviews, err := scanReviews(rows, &total)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// CreateBatch inserts reviews in a single transaction.
func (r *ReviewRepository) CreateBatch(ctx context.Context, reviews []domain.Review) (_ int, err error) {
	if len(reviews) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO reviews (id, business_id, external_id, stars, text, sentiment, published_at,
		                     owner_response_text, main_themes, staff_mentioned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (business_id, external_id) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "CreateReviews", query)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin review batch: %w", err)
	}

	inserted := 0
	for _, rv := range reviews {
		tag, execErr := tx.Exec(ctx, query,
			rv.ID,
			rv.BusinessID,
			nullString(rv.ExternalID),
			rv.Stars,
			rv.Text,
			string(rv.Sentiment),
			nullTime(rv.PublishedAt),
			rv.OwnerResponseText,
			rv.MainThemes,
			rv.StaffMentioned,
			rv.CreatedAt,
		)
		if execErr != nil {
			_ = tx.Rollback(ctx)
			if hasSQLState(execErr, sqlStateForeignKeyViolation) {
				err = apperrors.NotFound("business", rv.BusinessID)
				return 0, err
			}
			err = fmt.Errorf("insert review %s: %w", rv.ID, execErr)
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit review batch: %w", err)
	}
	return inserted, nil
}

// scanReviews reads review rows; when total is non-nil a trailing
// total_count column is scanned into it.
func scanReviews(rows pgx.Rows, total *int) ([]domain.Review, error) {
	reviews := []domain.Review{}
	for rows.Next() {
		var (
			rv        domain.Review
			sentiment string
			published *time.Time
		)
		dest := []any{
			&rv.ID,
			&rv.BusinessID,
			&rv.BusinessName,
			&rv.ExternalID,
			&rv.Stars,
			&rv.Text,
			&sentiment,
			&published,
			&rv.OwnerResponseText,
			&rv.MainThemes,
			&rv.StaffMentioned,
			&rv.CreatedAt,
		}
		if total != nil {
			dest = append(dest, total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		rv.Sentiment = domain.ParseSentiment(sentiment)
		if published != nil {
			rv.PublishedAt = published.UTC()
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
