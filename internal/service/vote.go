package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// VoteService records helpfulness votes. Votes are informational and never
// feed the product rating.
type VoteService struct {
	repo   repository.VoteRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewVoteService creates a vote service.
func NewVoteService(repo repository.VoteRepository, events EventPublisher, logger *slog.Logger) *VoteService {
	return &VoteService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Vote records or replaces voterID's vote on an active review.
func (s *VoteService) Vote(ctx context.Context, reviewID, voterID string, value int) (*domain.Vote, error) {
	vote, err := domain.NewVote(reviewID, voterID, value, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, vote); err != nil {
		if apperrors.HTTPStatus(err) < 500 {
			return nil, err
		}
		return nil, fmt.Errorf("vote on review %s: %w", reviewID, err)
	}
	reviewVotesTotal.WithLabelValues(vote.Value.String()).Inc()

	s.logger.InfoContext(ctx, "review voted",
		slog.String("review_id", reviewID),
		slog.String("voter_id", voterID),
		slog.String("value", vote.Value.String()),
	)
	if err := s.events.PublishReviewVoted(ctx, vote); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.voted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}
	return vote, nil
}
