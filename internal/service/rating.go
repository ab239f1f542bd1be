package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// RatingService recomputes and serves product rating summaries.
type RatingService struct {
	repo   repository.RatingRepository
	cache  RatingCache
	logger *slog.Logger
}

// NewRatingService creates a rating service. cache may be nil.
func NewRatingService(repo repository.RatingRepository, cache RatingCache, logger *slog.Logger) *RatingService {
	return &RatingService{repo: repo, cache: cache, logger: logger}
}

// Recompute derives the summary from the product's active, unflagged
// reviews, stores it and writes it through to the cache.
func (s *RatingService) Recompute(ctx context.Context, productID string) (*domain.RatingSummary, error) {
	summary, err := s.repo.Recompute(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("recompute rating for %s: %w", productID, err)
	}
	ratingRecomputationsTotal.Inc()

	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.WarnContext(ctx, "rating cache write failed",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "rating recomputed",
		slog.String("product_id", productID),
		slog.Float64("average_rating", summary.AverageRating),
		slog.Int("review_count", summary.ReviewCount),
	)
	return summary, nil
}

// GetRating returns the stored summary, or the zero summary when the product
// has never been recomputed.
func (s *RatingService) GetRating(ctx context.Context, productID string) (*domain.RatingSummary, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, productID)
		if err != nil {
			s.logger.WarnContext(ctx, "rating cache read failed",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		} else if ok {
			return cached, nil
		}
	}

	summary, err := s.repo.Get(ctx, productID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get rating for %s: %w", productID, err)
		}
		summary = domain.EmptyRatingSummary(productID)
	}

	if s.cache != nil {
		if _, err := s.cache.Fill(ctx, summary); err != nil {
			s.logger.WarnContext(ctx, "rating cache fill failed",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}
	return summary, nil
}
