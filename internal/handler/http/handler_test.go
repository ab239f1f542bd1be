package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-service/internal/auth"
	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/event"
	"github.com/utafrali/review-service/internal/repository"
	"github.com/utafrali/review-service/internal/service"
	"github.com/utafrali/review-service/pkg/health"
	"github.com/utafrali/review-service/pkg/httputil"
)

// ============================================================================
// Mock repositories
// ============================================================================

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
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
	return m.Called(ctx, vote).Error(0)
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

// ============================================================================
// Test helpers
// ============================================================================

const (
	testAdminToken = "moderator-secret"
	reviewID       = "7f1c2a9e-4b1d-4c8e-9a51-2d7a0b3c4e5f"
)

type testEnv struct {
	reviews *mockReviewRepository
	votes   *mockVoteRepository
	ratings *mockRatingRepository
	router  http.Handler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestEnv wires the production router over mocked repositories, so
// middleware, auth and error mapping are exercised end-to-end.
func newTestEnv() *testEnv {
	logger := testLogger()
	env := &testEnv{
		reviews: new(mockReviewRepository),
		votes:   new(mockVoteRepository),
		ratings: new(mockRatingRepository),
	}
	events := event.Discard{}
	env.router = NewRouter(
		Services{
			Reviews: service.NewReviewService(env.reviews, nil, events, logger),
			Votes:   service.NewVoteService(env.votes, events, logger),
			Ratings: service.NewRatingService(env.ratings, nil, logger),
		},
		auth.NewGate(testAdminToken, logger),
		nil,
		health.NewHandler(),
		logger,
		nil,
	)
	return env
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func asUser(id string) map[string]string {
	return map[string]string{auth.UserIDHeader: id}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func jsonDecode(rec *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(rec.Body).Decode(v)
}

func dataMap(t *testing.T, resp httputil.Response) map[string]any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

func sampleReview() *domain.Review {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Review{
		ID:        reviewID,
		ProductID: "p1",
		AuthorID:  "alice",
		Rating:    4,
		Text:      "works well",
		State:     domain.StateActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
}
