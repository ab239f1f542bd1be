package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// ReviewState is the lifecycle state of a review. Both deleted states are
// terminal.
type ReviewState string

const (
	StateActive             ReviewState = "active"
	StateDeletedByUser      ReviewState = "deleted_by_user"
	StateDeletedByModerator ReviewState = "deleted_by_moderator"
)

// Valid reports whether s is a known state.
func (s ReviewState) Valid() bool {
	switch s {
	case StateActive, StateDeletedByUser, StateDeletedByModerator:
		return true
	}
	return false
}

// IsDeleted reports whether s is one of the terminal states.
func (s ReviewState) IsDeleted() bool {
	return s == StateDeletedByUser || s == StateDeletedByModerator
}

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating and text for a product.
type Review struct {
	ID           string      `json:"id"`
	ProductID    string      `json:"product_id"`
	AuthorID     string      `json:"author_id"`
	Rating       int         `json:"rating"`
	Text         string      `json:"text"`
	State        ReviewState `json:"state"`
	IsViolation  bool        `json:"is_violation"`
	ReportsCount int         `json:"reports_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}

// ValidateRating rejects ratings outside 1..5.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidArgument(fmt.Sprintf("rating must be between %d and %d, got %d", MinRating, MaxRating, rating))
	}
	return nil
}

// ValidateText rejects empty or whitespace-only review text.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.InvalidArgument("text must not be empty")
	}
	return nil
}

// NewReview returns an active, unflagged review with a fresh id.
func NewReview(productID, authorID string, rating int, text string, now time.Time) (*Review, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, apperrors.InvalidArgument("product_id must not be empty")
	}
	if authorID == "" {
		return nil, apperrors.Unauthenticated("author identity is required")
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	return &Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		AuthorID:  authorID,
		Rating:    rating,
		Text:      text,
		State:     StateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive reports whether the review still accepts edits, votes and reports.
func (r *Review) IsActive() bool {
	return r.State == StateActive
}

// DeletedBy returns "user", "moderator" or "" for an active review.
func (r *Review) DeletedBy() string {
	switch r.State {
	case StateDeletedByUser:
		return "user"
	case StateDeletedByModerator:
		return "moderator"
	}
	return ""
}

// requireActive makes a deleted review indistinguishable from a missing one.
func (r *Review) requireActive() error {
	if !r.IsActive() {
		return apperrors.NotFound("review", r.ID)
	}
	return nil
}

func (r *Review) requireAuthor(callerID, action string) error {
	if r.AuthorID != callerID {
		return apperrors.Forbidden(fmt.Sprintf("only the author can %s this review", action))
	}
	return nil
}

// Edit replaces the supplied fields. Nil fields are left unchanged.
func (r *Review) Edit(callerID string, rating *int, text *string, now time.Time) error {
	if err := r.requireActive(); err != nil {
		return err
	}
	if err := r.requireAuthor(callerID, "edit"); err != nil {
		return err
	}
	if rating != nil {
		if err := ValidateRating(*rating); err != nil {
			return err
		}
	}
	if text != nil {
		if err := ValidateText(*text); err != nil {
			return err
		}
	}

	if rating != nil {
		r.Rating = *rating
	}
	if text != nil {
		r.Text = *text
	}
	r.UpdatedAt = now
	return nil
}

// DeleteByAuthor moves the review to deleted_by_user.
func (r *Review) DeleteByAuthor(callerID string, now time.Time) error {
	if err := r.requireActive(); err != nil {
		return err
	}
	if err := r.requireAuthor(callerID, "delete"); err != nil {
		return err
	}
	r.markDeleted(StateDeletedByUser, now)
	return nil
}

// DeleteByModerator moves the review to deleted_by_moderator.
func (r *Review) DeleteByModerator(now time.Time) error {
	if err := r.requireActive(); err != nil {
		return err
	}
	r.markDeleted(StateDeletedByModerator, now)
	return nil
}

func (r *Review) markDeleted(state ReviewState, now time.Time) {
	r.State = state
	r.UpdatedAt = now
	deletedAt := now
	r.DeletedAt = &deletedAt
}

// CountsTowardRating reports whether the review is included in the product
// rating summary.
func (r *Review) CountsTowardRating() bool {
	return r.IsActive() && !r.IsViolation
}
