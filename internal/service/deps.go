package service

import (
	"context"

	"github.com/utafrali/review-service/internal/domain"
)

// EventPublisher emits review domain events after a change commits.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, r *domain.Review) error
	PublishReviewUpdated(ctx context.Context, r *domain.Review) error
	PublishReviewDeleted(ctx context.Context, r *domain.Review) error
	PublishReviewReported(ctx context.Context, r *domain.Review, rep *domain.Report) error
	PublishReviewVoted(ctx context.Context, v *domain.Vote) error
}

// ProductCatalog answers whether a product exists.
type ProductCatalog interface {
	ProductExists(ctx context.Context, productID string) (bool, error)
}

// RatingCache caches rating summaries in front of the database. Set
// overwrites; Fill writes only when the product has no cached summary.
type RatingCache interface {
	Get(ctx context.Context, productID string) (*domain.RatingSummary, bool, error)
	Set(ctx context.Context, s *domain.RatingSummary) error
	Fill(ctx context.Context, s *domain.RatingSummary) (bool, error)
}
