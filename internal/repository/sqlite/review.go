package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/repository"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/database"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

const reviewColumns = `r.id, r.business_id, b.name, COALESCE(r.external_id, ''), r.stars, r.text,
		r.sentiment, r.published_at, r.owner_response_text, r.main_themes,
		r.staff_mentioned, r.created_at`

// ReviewRepository implements review persistence on SQLite.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a SQLite-backed review repository.
func NewReviewRepository(d *DB) *ReviewRepository {
	return &ReviewRepository{db: d.db}
}

// List returns the reviews matching q, oldest first with undated reviews last.
func (r *ReviewRepository) List(ctx context.Context, q domain.ReviewQuery) (_ []domain.Review, err error) {
	var (
		conditions []string
		args       []any
	)
	if !q.Business.IsAll() {
		conditions = append(conditions, "r.business_id = ?")
		args = append(args, q.Business.ID())
	}
	if !q.Range.From.IsZero() {
		conditions = append(conditions, "r.published_at >= ?")
		args = append(args, formatTime(q.Range.From))
	}
	if !q.Range.To.IsZero() {
		conditions = append(conditions, "(r.published_at < ? OR r.published_at IS NULL)")
		args = append(args, formatTime(q.Range.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf(`SELECT %s FROM reviews r JOIN businesses b ON b.id = r.business_id %s
		ORDER BY r.published_at IS NULL, r.published_at ASC, r.id`, reviewColumns, where)

	ctx, end := database.Trace(ctx, "sqlite", "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows, nil)
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

	where := ""
	var args []any
	if !filter.Business.IsAll() {
		where = "WHERE r.business_id = ?"
		args = append(args, filter.Business.ID())
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s, count(*) OVER() AS total_count
		FROM reviews r JOIN businesses b ON b.id = r.business_id %s
		ORDER BY r.published_at IS NULL, r.published_at DESC, r.created_at DESC, r.id
		LIMIT ? OFFSET ?`, reviewColumns, where)

	ctx, end := database.Trace(ctx, "sqlite", "ListReviewsPage", query)
	defer func() { end(err) }()

	rows, err := r.db.QueryContext(ctx, query, args...)
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

	query := `INSERT INTO reviews (id, business_id, external_id, stars, text, sentiment, published_at,
		owner_response_text, main_themes, staff_mentioned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (business_id, external_id) DO NOTHING`

	ctx, end := database.Trace(ctx, "sqlite", "CreateReviews", query)
	defer func() { end(err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin review batch: %w", err)
	}

	inserted := 0
	for _, rv := range reviews {
		res, execErr := tx.ExecContext(ctx, query,
			rv.ID, rv.BusinessID, nullString(rv.ExternalID), rv.Stars, rv.Text, string(rv.Sentiment),
			nullTime(rv.PublishedAt), rv.OwnerResponseText, rv.MainThemes, rv.StaffMentioned,
			formatTime(rv.CreatedAt),
		)
		if execErr != nil {
			_ = tx.Rollback()
			if isConstraint(execErr, "FOREIGN KEY") {
				err = apperrors.NotFound("business", rv.BusinessID)
				return 0, err
			}
			err = fmt.Errorf("insert review %s: %w", rv.ID, execErr)
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit review batch: %w", err)
	}
	return inserted, nil
}

func scanReviews(rows *sql.Rows, total *int) ([]domain.Review, error) {
	reviews := []domain.Review{}
	for rows.Next() {
		var (
			rv                 domain.Review
			sentiment, created string
			published          sql.NullString
		)
		dest := []any{
			&rv.ID, &rv.BusinessID, &rv.BusinessName, &rv.ExternalID, &rv.Stars, &rv.Text,
			&sentiment, &published, &rv.OwnerResponseText, &rv.MainThemes, &rv.StaffMentioned, &created,
		}
		if total != nil {
			dest = append(dest, total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}

		var err error
		if rv.PublishedAt, err = parseNullTime(published); err != nil {
			return nil, err
		}
		if rv.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		rv.Sentiment = domain.ParseSentiment(sentiment)
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}
