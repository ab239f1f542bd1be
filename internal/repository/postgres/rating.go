package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	"github.com/utafrali/review-service/pkg/database"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

const (
	getRatingSQL = `
		SELECT product_id, average_rating, review_count, updated_at
		FROM product_ratings
		WHERE product_id = $1`

	// Serializes recomputes of one product until commit, so each aggregate
	// is stored in the order it was read.
	lockProductSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

	aggregateRatingSQL = `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE product_id = $1 AND status = 'active' AND is_violation = FALSE`

	upsertRatingSQL = `
		INSERT INTO product_ratings (product_id, average_rating, review_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id)
		DO UPDATE SET average_rating = EXCLUDED.average_rating,
		              review_count = EXCLUDED.review_count,
		              updated_at = EXCLUDED.updated_at`
)

// RatingRepository implements repository.RatingRepository on PostgreSQL.
type RatingRepository struct {
	pool database.DBTX
	now  func() time.Time
}

// NewRatingRepository creates a PostgreSQL-backed rating summary store.
func NewRatingRepository(pool database.DBTX) *RatingRepository {
	return &RatingRepository{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.RatingRepository = (*RatingRepository)(nil)

// Get returns the stored summary for productID or NotFound.
func (r *RatingRepository) Get(ctx context.Context, productID string) (_ *domain.RatingSummary, err error) {
	ctx, end := database.TraceQuery(ctx, "GetRating", getRatingSQL)
	defer func() { end(err) }()

	var (
		s         domain.RatingSummary
		updatedAt time.Time
	)
	err = r.pool.QueryRow(ctx, getRatingSQL, productID).Scan(
		&s.ProductID,
		&s.AverageRating,
		&s.ReviewCount,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("rating", productID)
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	s.UpdatedAt = &updatedAt
	return &s, nil
}

// Recompute takes a transaction-scoped advisory lock on productID, aggregates
// the active unflagged reviews and replaces the summary row.
func (r *RatingRepository) Recompute(ctx context.Context, productID string) (_ *domain.RatingSummary, err error) {
	ctx, end := database.TraceQuery(ctx, "RecomputeRating", aggregateRatingSQL)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rating transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, lockProductSQL, productID); err != nil {
		return nil, fmt.Errorf("lock product rating: %w", err)
	}

	s := domain.RatingSummary{ProductID: productID}
	if err = tx.QueryRow(ctx, aggregateRatingSQL, productID).Scan(&s.ReviewCount, &s.AverageRating); err != nil {
		return nil, fmt.Errorf("aggregate ratings: %w", err)
	}

	updatedAt := r.now()
	if _, err = tx.Exec(ctx, upsertRatingSQL, productID, s.AverageRating, s.ReviewCount, updatedAt); err != nil {
		return nil, fmt.Errorf("store rating summary: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rating transaction: %w", err)
	}
	s.UpdatedAt = &updatedAt
	return &s, nil
}
