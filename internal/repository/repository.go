package repository

import (
	"context"

	"github.com/utafrali/review-service/internal/domain"
)

// ReviewMutation changes a locked review in place. Returning an error aborts
// the transaction and leaves the stored row untouched.
type ReviewMutation func(review *domain.Review) error

// ReviewRepository persists reviews and their lifecycle.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID returns a review in any state.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListActiveByProduct returns a page of active reviews, newest first, and
	// the total number of active reviews for the product.
	ListActiveByProduct(ctx context.Context, productID string, offset, limit int) ([]domain.Review, int, error)

	// Mutate locks the review row, applies fn and writes the result back in one
	// transaction.
	Mutate(ctx context.Context, id string, fn ReviewMutation) (*domain.Review, error)

	// Report increments the report counter of an active review, sets its
	// violation flag and appends the audit row, atomically.
	Report(ctx context.Context, report *domain.Report) (*domain.Review, error)
}

// VoteRepository is the helpfulness vote ledger.
type VoteRepository interface {
	// Upsert records the vote, replacing any earlier vote by the same voter.
	// It fails with NotFound unless the review exists and is active.
	Upsert(ctx context.Context, vote *domain.Vote) error
}

// RatingRepository stores derived product rating summaries.
type RatingRepository interface {
	// Get returns the stored summary or a NotFound error.
	Get(ctx context.Context, productID string) (*domain.RatingSummary, error)

	// Recompute derives the summary from eligible reviews and replaces the
	// stored one. Calls for the same product are serialized.
	Recompute(ctx context.Context, productID string) (*domain.RatingSummary, error)
}
