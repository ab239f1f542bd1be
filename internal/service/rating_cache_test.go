package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/review-service/internal/cache"
	"github.com/utafrali/review-service/internal/domain"
)

// slowRatingReads runs afterRead between reading a summary and returning it,
// so a recompute can land while a reader still holds the old row.
type slowRatingReads struct {
	*memStore
	afterRead func()
}

func (s *slowRatingReads) Get(ctx context.Context, productID string) (*domain.RatingSummary, error) {
	summary, err := s.memStore.Get(ctx, productID)
	if fn := s.afterRead; fn != nil {
		s.afterRead = nil
		fn()
	}
	return summary, err
}

func addReview(t *testing.T, store *memStore, author string, rating int) {
	t.Helper()
	r, err := domain.NewReview("p1", author, rating, "fine", testNow)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), r))
}

func TestGetRating_ReadDuringRecomputeDoesNotStickInCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemStore()
	repo := &slowRatingReads{memStore: store}
	svc := NewRatingService(repo, cache.NewRatingCache(client, time.Minute), newTestLogger())

	addReview(t, store, "alice", 5)
	_, err := svc.Recompute(ctx, "p1")
	require.NoError(t, err)
	mr.FlushAll()

	addReview(t, store, "bob", 3)
	repo.afterRead = func() {
		_, err := svc.Recompute(ctx, "p1")
		require.NoError(t, err)
	}

	inFlight, err := svc.GetRating(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, inFlight.ReviewCount)

	got, err := svc.GetRating(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AverageRating)
	assert.Equal(t, 2, got.ReviewCount)
}

func TestRecompute_ReplacesCachedSummary(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemStore()
	svc := NewRatingService(store, cache.NewRatingCache(client, time.Minute), newTestLogger())

	empty, err := svc.GetRating(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, empty.ReviewCount)

	addReview(t, store, "alice", 5)
	_, err = svc.Recompute(ctx, "p1")
	require.NoError(t, err)

	got, err := svc.GetRating(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.AverageRating)
	assert.Equal(t, 1, got.ReviewCount)
}
