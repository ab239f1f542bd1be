package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	apperrors "github.com/utafrali/review-service/pkg/errors"
	"github.com/utafrali/review-service/pkg/pagination"
)

// ReviewService implements the review lifecycle.
type ReviewService struct {
	repo    repository.ReviewRepository
	catalog ProductCatalog
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// NewReviewService creates a review service. catalog may be nil, in which
// case product ids are not checked.
func NewReviewService(
	repo repository.ReviewRepository,
	catalog ProductCatalog,
	events EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:    repo,
		catalog: catalog,
		events:  events,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateReviewInput holds the parameters for a new review.
type CreateReviewInput struct {
	ProductID string
	AuthorID  string
	Rating    int
	Text      string
}

// EditReviewInput holds a partial update. Nil fields are left unchanged.
type EditReviewInput struct {
	Rating *int
	Text   *string
}

// CreateReview validates the input, optionally confirms the product with the
// catalog and stores an active review.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*domain.Review, error) {
	review, err := domain.NewReview(in.ProductID, in.AuthorID, in.Rating, in.Text, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.checkProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	reviewsCreatedTotal.Inc()

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("author_id", review.AuthorID),
		slog.Int("rating", review.Rating),
	)
	if err := s.events.PublishReviewCreated(ctx, review); err != nil {
		s.logPublishError(ctx, "review.created", review.ID, err)
	}
	return review, nil
}

// checkProduct rejects products the catalog reports as missing. Catalog
// outages are logged and do not block the write.
func (s *ReviewService) checkProduct(ctx context.Context, productID string) error {
	if s.catalog == nil {
		return nil
	}
	exists, err := s.catalog.ProductExists(ctx, productID)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog check failed, accepting review",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !exists {
		return apperrors.InvalidArgument(fmt.Sprintf("product %s does not exist", productID))
	}
	return nil
}

// GetReview returns a review in any state.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListProductReviews returns one page of a product's active reviews, newest
// first, and the total active count.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, page pagination.Params) ([]domain.Review, int, error) {
	reviews, total, err := s.repo.ListActiveByProduct(ctx, productID, page.Offset(), page.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list product reviews: %w", err)
	}
	return reviews, total, nil
}

// EditReview applies a partial update on behalf of the author. A deleted
// review is NotFound and a non-author is Forbidden before any value is
// validated.
func (s *ReviewService) EditReview(ctx context.Context, id, callerID string, in EditReviewInput) (*domain.Review, error) {
	now := s.now()
	review, err := s.repo.Mutate(ctx, id, func(r *domain.Review) error {
		return r.Edit(callerID, in.Rating, in.Text, now)
	})
	if err != nil {
		return nil, s.transitionError(ctx, "edit", id, callerID, err)
	}
	reviewTransitionsTotal.WithLabelValues(transitionEdited).Inc()

	s.logger.InfoContext(ctx, "review edited",
		slog.String("review_id", review.ID),
		slog.String("author_id", callerID),
	)
	if err := s.events.PublishReviewUpdated(ctx, review); err != nil {
		s.logPublishError(ctx, "review.updated", review.ID, err)
	}
	return review, nil
}

// DeleteReviewByAuthor soft-deletes the caller's own review.
func (s *ReviewService) DeleteReviewByAuthor(ctx context.Context, id, callerID string) (*domain.Review, error) {
	now := s.now()
	review, err := s.repo.Mutate(ctx, id, func(r *domain.Review) error {
		return r.DeleteByAuthor(callerID, now)
	})
	if err != nil {
		return nil, s.transitionError(ctx, "delete", id, callerID, err)
	}
	return s.deleted(ctx, review, transitionDeletedByUser), nil
}

// DeleteReviewByModerator soft-deletes any active review. The caller has
// already been authorized as a moderator.
func (s *ReviewService) DeleteReviewByModerator(ctx context.Context, id string) (*domain.Review, error) {
	now := s.now()
	review, err := s.repo.Mutate(ctx, id, func(r *domain.Review) error {
		return r.DeleteByModerator(now)
	})
	if err != nil {
		return nil, s.transitionError(ctx, "moderator delete", id, "", err)
	}
	return s.deleted(ctx, review, transitionDeletedByModerator), nil
}

func (s *ReviewService) deleted(ctx context.Context, review *domain.Review, transition string) *domain.Review {
	reviewTransitionsTotal.WithLabelValues(transition).Inc()
	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.String("state", string(review.State)),
	)
	if err := s.events.PublishReviewDeleted(ctx, review); err != nil {
		s.logPublishError(ctx, "review.deleted", review.ID, err)
	}
	return review
}

// ReportReview records an abuse report. Every report flags the review as a
// violation, which removes it from the product rating on the next
// recomputation.
func (s *ReviewService) ReportReview(ctx context.Context, id, reporterID, reason string) (*domain.Review, error) {
	report, err := domain.NewReport(id, reporterID, reason, s.now())
	if err != nil {
		return nil, err
	}

	review, err := s.repo.Report(ctx, report)
	if err != nil {
		return nil, s.transitionError(ctx, "report", id, reporterID, err)
	}
	reviewTransitionsTotal.WithLabelValues(transitionReported).Inc()

	s.logger.InfoContext(ctx, "review reported",
		slog.String("review_id", review.ID),
		slog.String("report_id", report.ID),
		slog.String("reporter_id", reporterID),
		slog.Int("reports_count", review.ReportsCount),
	)
	if err := s.events.PublishReviewReported(ctx, review, report); err != nil {
		s.logPublishError(ctx, "review.reported", review.ID, err)
	}
	return review, nil
}

// transitionError passes domain errors through and wraps storage errors.
func (s *ReviewService) transitionError(ctx context.Context, action, id, callerID string, err error) error {
	if apperrors.HTTPStatus(err) < 500 {
		s.logger.DebugContext(ctx, "review "+action+" rejected",
			slog.String("review_id", id),
			slog.String("caller_id", callerID),
			slog.String("reason", err.Error()),
		)
		return err
	}
	return fmt.Errorf("%s review %s: %w", action, id, err)
}

func (s *ReviewService) logPublishError(ctx context.Context, eventType, reviewID string, err error) {
	s.logger.ErrorContext(ctx, "failed to publish "+eventType+" event",
		slog.String("review_id", reviewID),
		slog.String("error", err.Error()),
	)
}
