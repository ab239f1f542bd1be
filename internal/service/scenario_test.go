package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-service/internal/domain"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

type services struct {
	store   *memStore
	reviews *ReviewService
	votes   *VoteService
	ratings *RatingService
}

func newServices(t *testing.T) services {
	t.Helper()
	events := new(mockEvents)
	events.On("PublishReviewCreated", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishReviewUpdated", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishReviewDeleted", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishReviewReported", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	events.On("PublishReviewVoted", mock.Anything, mock.Anything).Return(nil)

	store := newMemStore()
	reviews := NewReviewService(store, nil, events, newTestLogger())
	reviews.now = fixedClock
	votes := NewVoteService(store, events, newTestLogger())
	votes.now = fixedClock
	return services{
		store:   store,
		reviews: reviews,
		votes:   votes,
		ratings: NewRatingService(store, nil, newTestLogger()),
	}
}

func (s services) create(t *testing.T, productID, author string, rating int) *domain.Review {
	t.Helper()
	review, err := s.reviews.CreateReview(context.Background(), CreateReviewInput{
		ProductID: productID, AuthorID: author, Rating: rating, Text: "review text",
	})
	require.NoError(t, err)
	return review
}

func TestScenario_CreateThenGet(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	for rating := domain.MinRating; rating <= domain.MaxRating; rating++ {
		created := s.create(t, "p1", "alice", rating)

		got, err := s.reviews.GetReview(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, rating, got.Rating)
		assert.Equal(t, "review text", got.Text)
		assert.Equal(t, domain.StateActive, got.State)
		assert.False(t, got.IsViolation)
		assert.Zero(t, got.ReportsCount)
	}
}

func TestScenario_DeletedReviewRejectsMutations(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	review := s.create(t, "p1", "alice", 4)

	_, err := s.reviews.DeleteReviewByAuthor(ctx, review.ID, "alice")
	require.NoError(t, err)

	_, err = s.reviews.EditReview(ctx, review.ID, "alice", EditReviewInput{Text: strPtr("again")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.reviews.ReportReview(ctx, review.ID, "bob", "spam")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.votes.Vote(ctx, review.ID, "bob", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.reviews.DeleteReviewByModerator(ctx, review.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := s.reviews.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDeletedByUser, got.State)
	assert.Equal(t, "user", got.DeletedBy())
}

func TestScenario_NonAuthorEditLeavesRecordUnchanged(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	review := s.create(t, "p1", "alice", 4)

	_, err := s.reviews.EditReview(ctx, review.ID, "mallory", EditReviewInput{Rating: intPtr(1), Text: strPtr("bad")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	got, err := s.reviews.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "review text", got.Text)
}

func TestScenario_RevoteOverwrites(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	review := s.create(t, "p1", "alice", 4)

	_, err := s.votes.Vote(ctx, review.ID, "bob", 1)
	require.NoError(t, err)
	_, err = s.votes.Vote(ctx, review.ID, "bob", -1)
	require.NoError(t, err)

	votes := s.store.votesFor(review.ID)
	require.Len(t, votes, 1)
	assert.Equal(t, domain.VoteUnhelpful, votes[0].Value)
}

func TestScenario_ReportsAccumulate(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	review := s.create(t, "p1", "alice", 4)

	first, err := s.reviews.ReportReview(ctx, review.ID, "bob", "spam")
	require.NoError(t, err)
	assert.True(t, first.IsViolation)
	assert.Equal(t, 1, first.ReportsCount)

	for _, reporter := range []string{"carol", "dave"} {
		_, err := s.reviews.ReportReview(ctx, review.ID, reporter, "spam")
		require.NoError(t, err)
	}

	got, err := s.reviews.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ReportsCount)
	assert.True(t, got.IsViolation)
	assert.Equal(t, domain.StateActive, got.State)
	assert.Len(t, s.store.reports, 3)
}

func TestScenario_ReportExcludesFromRating(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	review := s.create(t, "p1", "alice", 5)

	summary, err := s.ratings.Recompute(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, summary.AverageRating)
	assert.Equal(t, 1, summary.ReviewCount)

	_, err = s.reviews.ReportReview(ctx, review.ID, "bob", "abusive")
	require.NoError(t, err)

	summary, err = s.ratings.Recompute(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0, summary.ReviewCount)
}

func TestScenario_EmptyProductRating(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	got, err := s.ratings.GetRating(ctx, "p-none")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.AverageRating)
	assert.Equal(t, 0, got.ReviewCount)

	summary, err := s.ratings.Recompute(ctx, "p-none")
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.AverageRating)
	assert.Equal(t, 0, summary.ReviewCount)
}

func TestScenario_AverageOfTwo(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	s.create(t, "p1", "alice", 3)
	s.create(t, "p1", "bob", 5)
	s.create(t, "p2", "carol", 1)

	summary, err := s.ratings.Recompute(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, summary.AverageRating)
	assert.Equal(t, 2, summary.ReviewCount)

	stored, err := s.ratings.GetRating(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, summary.AverageRating, stored.AverageRating)
	assert.Equal(t, summary.ReviewCount, stored.ReviewCount)
}

func TestScenario_VotesDoNotAffectRating(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	review := s.create(t, "p1", "alice", 2)

	before, err := s.ratings.Recompute(ctx, "p1")
	require.NoError(t, err)
	for _, voter := range []string{"bob", "carol", "dave"} {
		_, err := s.votes.Vote(ctx, review.ID, voter, 1)
		require.NoError(t, err)
	}
	after, err := s.ratings.Recompute(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, before.AverageRating, after.AverageRating)
	assert.Equal(t, before.ReviewCount, after.ReviewCount)
}

func TestScenario_DeletionExcludesFromRating(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	keep := s.create(t, "p1", "alice", 4)
	drop := s.create(t, "p1", "bob", 1)

	_, err := s.reviews.DeleteReviewByModerator(ctx, drop.ID)
	require.NoError(t, err)

	summary, err := s.ratings.Recompute(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, float64(keep.Rating), summary.AverageRating)
	assert.Equal(t, 1, summary.ReviewCount)
}
