package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
)

// --- Mock Repositories ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListActiveByProduct(ctx context.Context, productID string, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, productID, offset, limit)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

// Mutate applies fn to the review registered with On("Mutate", ...) and
// returns it, the way the postgres implementation does inside its
// transaction.
func (m *mockReviewRepository) Mutate(ctx context.Context, id string, fn repository.ReviewMutation) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	review := *args.Get(0).(*domain.Review)
	if err := fn(&review); err != nil {
		return nil, err
	}
	return &review, args.Error(1)
}

func (m *mockReviewRepository) Report(ctx context.Context, report *domain.Report) (*domain.Review, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

type mockVoteRepository struct {
	mock.Mock
}

func (m *mockVoteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

type mockRatingRepository struct {
	mock.Mock
}

func (m *mockRatingRepository) Get(ctx context.Context, productID string) (*domain.RatingSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

func (m *mockRatingRepository) Recompute(ctx context.Context, productID string) (*domain.RatingSummary, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

// --- Mock Collaborators ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) PublishReviewUpdated(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) PublishReviewDeleted(ctx context.Context, r *domain.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockEvents) PublishReviewReported(ctx context.Context, r *domain.Review, rep *domain.Report) error {
	return m.Called(ctx, r, rep).Error(0)
}

func (m *mockEvents) PublishReviewVoted(ctx context.Context, v *domain.Vote) error {
	return m.Called(ctx, v).Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) ProductExists(ctx context.Context, productID string) (bool, error) {
	args := m.Called(ctx, productID)
	return args.Bool(0), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, productID string) (*domain.RatingSummary, bool, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.RatingSummary), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, s *domain.RatingSummary) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockCache) Fill(ctx context.Context, s *domain.RatingSummary) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

// --- Test Helpers ---

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func fixedClock() time.Time { return testNow }

func activeReview() *domain.Review {
	return &domain.Review{
		ID:        "rev-1",
		ProductID: "p1",
		AuthorID:  "alice",
		Rating:    4,
		Text:      "solid",
		State:     domain.StateActive,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	}
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }
