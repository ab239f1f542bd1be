package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/review-service/internal/domain"
)

const ratingKeyPrefix = "review:rating:"

// RatingCache caches product rating summaries in Redis. Recomputation writes
// through with Set; readers only Fill empty keys, so a summary read before a
// recompute cannot replace the recomputed one.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingCache creates a cache whose entries expire after ttl.
func NewRatingCache(client *redis.Client, ttl time.Duration) *RatingCache {
	return &RatingCache{client: client, ttl: ttl}
}

func ratingKey(productID string) string {
	return ratingKeyPrefix + productID
}

// Get returns the cached summary. A miss is (nil, false, nil).
func (c *RatingCache) Get(ctx context.Context, productID string) (*domain.RatingSummary, bool, error) {
	data, err := c.client.Get(ctx, ratingKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get rating: %w", err)
	}

	var s domain.RatingSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("unmarshal rating: %w", err)
	}
	return &s, true, nil
}

// Set stores s under its product id, replacing any cached copy.
func (c *RatingCache) Set(ctx context.Context, s *domain.RatingSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}
	if err := c.client.Set(ctx, ratingKey(s.ProductID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set rating: %w", err)
	}
	return nil
}

// Fill stores s only when nothing is cached for its product. It reports
// whether s was stored.
func (c *RatingCache) Fill(ctx context.Context, s *domain.RatingSummary) (bool, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("marshal rating: %w", err)
	}
	stored, err := c.client.SetNX(ctx, ratingKey(s.ProductID), data, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis fill rating: %w", err)
	}
	return stored, nil
}
