package service

import (
	"context"
	"sync"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// memStore is an in-memory stand-in for the three postgres repositories,
// used to run whole lifecycle scenarios through the services.
type memStore struct {
	mu      sync.Mutex
	reviews map[string]domain.Review
	order   []string
	votes   map[[2]string]domain.Vote
	reports []domain.Report
	ratings map[string]domain.RatingSummary
}

var (
	_ repository.ReviewRepository = (*memStore)(nil)
	_ repository.VoteRepository   = (*memStore)(nil)
	_ repository.RatingRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		reviews: make(map[string]domain.Review),
		votes:   make(map[[2]string]domain.Vote),
		ratings: make(map[string]domain.RatingSummary),
	}
}

func (s *memStore) Create(_ context.Context, review *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[review.ID] = *review
	s.order = append(s.order, review.ID)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	return &r, nil
}

func (s *memStore) ListActiveByProduct(_ context.Context, productID string, offset, limit int) ([]domain.Review, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []domain.Review
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reviews[s.order[i]]
		if r.ProductID == productID && r.IsActive() {
			active = append(active, r)
		}
	}
	total := len(active)
	if offset >= total {
		return []domain.Review{}, total, nil
	}
	end := min(offset+limit, total)
	return active[offset:end], total, nil
}

func (s *memStore) Mutate(_ context.Context, id string, fn repository.ReviewMutation) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NotFound("review", id)
	}
	if err := fn(&r); err != nil {
		return nil, err
	}
	s.reviews[id] = r
	return &r, nil
}

func (s *memStore) Report(_ context.Context, report *domain.Report) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[report.ReviewID]
	if !ok || !r.IsActive() {
		return nil, apperrors.NotFound("review", report.ReviewID)
	}
	r.ReportsCount++
	r.IsViolation = true
	r.UpdatedAt = report.CreatedAt
	s.reviews[r.ID] = r
	s.reports = append(s.reports, *report)
	return &r, nil
}

func (s *memStore) Upsert(_ context.Context, vote *domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[vote.ReviewID]
	if !ok || !r.IsActive() {
		return apperrors.NotFound("review", vote.ReviewID)
	}
	s.votes[[2]string{vote.ReviewID, vote.VoterID}] = *vote
	return nil
}

func (s *memStore) Get(_ context.Context, productID string) (*domain.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.ratings[productID]
	if !ok {
		return nil, apperrors.NotFound("rating", productID)
	}
	return &summary, nil
}

func (s *memStore) Recompute(_ context.Context, productID string) (*domain.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum, count int
	for _, r := range s.reviews {
		if r.ProductID == productID && r.CountsTowardRating() {
			sum += r.Rating
			count++
		}
	}
	summary := domain.RatingSummary{ProductID: productID, ReviewCount: count}
	if count > 0 {
		summary.AverageRating = float64(sum) / float64(count)
	}
	updated := testNow
	summary.UpdatedAt = &updated
	s.ratings[productID] = summary
	return &summary, nil
}

func (s *memStore) votesFor(reviewID string) []domain.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Vote
	for key, v := range s.votes {
		if key[0] == reviewID {
			out = append(out, v)
		}
	}
	return out
}
