package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	"github.com/utafrali/review-service/pkg/database"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

const reviewColumns = `id, product_id, author_id, rating, text, status, is_violation, reports_count, created_at, updated_at, deleted_at`

const (
	insertReviewSQL = `
		INSERT INTO reviews (id, product_id, author_id, rating, text, status, is_violation, reports_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	getReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	lockReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`

	updateReviewSQL = `
		UPDATE reviews
		SET rating = $2, text = $3, status = $4, updated_at = $5, deleted_at = $6
		WHERE id = $1`

	countActiveSQL = `SELECT COUNT(*) FROM reviews WHERE product_id = $1 AND status = 'active'`

	listActiveSQL = `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1 AND status = 'active'
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`

	reportReviewSQL = `
		UPDATE reviews
		SET reports_count = reports_count + 1, is_violation = TRUE, updated_at = $2
		WHERE id = $1 AND status = 'active'
		RETURNING ` + reviewColumns

	insertReportSQL = `
		INSERT INTO review_reports (id, review_id, reporter_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

// ReviewRepository implements repository.ReviewRepository on PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv     domain.Review
		status string
	)
	if err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.AuthorID,
		&rv.Rating,
		&rv.Text,
		&status,
		&rv.IsViolation,
		&rv.ReportsCount,
		&rv.CreatedAt,
		&rv.UpdatedAt,
		&rv.DeletedAt,
	); err != nil {
		return nil, err
	}
	rv.State = domain.ReviewState(status)
	if !rv.State.Valid() {
		return nil, fmt.Errorf("review %s has unknown status %q", rv.ID, status)
	}
	return &rv, nil
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateReview", insertReviewSQL)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, insertReviewSQL,
		rv.ID,
		rv.ProductID,
		rv.AuthorID,
		rv.Rating,
		rv.Text,
		string(rv.State),
		rv.IsViolation,
		rv.ReportsCount,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID returns the review with id in any state.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "GetReview", getReviewSQL)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, getReviewSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// ListActiveByProduct returns one page of a product's active reviews, newest
// first, with the total active count.
func (r *ReviewRepository) ListActiveByProduct(ctx context.Context, productID string, offset, limit int) (_ []domain.Review, _ int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListActiveReviews", listActiveSQL)
	defer func() { end(err) }()

	var total int
	if err = r.pool.QueryRow(ctx, countActiveSQL, productID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	if total == 0 || offset >= total {
		return []domain.Review{}, total, nil
	}

	rows, err := r.pool.Query(ctx, listActiveSQL, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0, limit)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, total, nil
}

// Mutate locks the review with SELECT ... FOR UPDATE, applies fn and stores
// the content and lifecycle fields. Author, product, flag and counters are
// never written here.
func (r *ReviewRepository) Mutate(ctx context.Context, id string, fn repository.ReviewMutation) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "MutateReview", updateReviewSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rv, err := scanReview(tx.QueryRow(ctx, lockReviewSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("lock review: %w", err)
	}

	if err = fn(rv); err != nil {
		return nil, err
	}

	if _, err = tx.Exec(ctx, updateReviewSQL,
		rv.ID,
		rv.Rating,
		rv.Text,
		string(rv.State),
		rv.UpdatedAt,
		rv.DeletedAt,
	); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit review transaction: %w", err)
	}
	return rv, nil
}

// Report flags an active review and appends the audit row in one
// transaction. A missing or deleted review is NotFound.
func (r *ReviewRepository) Report(ctx context.Context, rep *domain.Report) (_ *domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, "ReportReview", reportReviewSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin report transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rv, err := scanReview(tx.QueryRow(ctx, reportReviewSQL, rep.ReviewID, rep.CreatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", rep.ReviewID)
		}
		return nil, fmt.Errorf("flag review: %w", err)
	}

	if _, err = tx.Exec(ctx, insertReportSQL,
		rep.ID,
		rep.ReviewID,
		rep.ReporterID,
		rep.Reason,
		rep.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert review report: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit report transaction: %w", err)
	}
	return rv, nil
}
