package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// MaxReportReasonLength is the longest accepted report reason, in characters.
const MaxReportReasonLength = 500

// Report is an audit record of one abuse report. It is never read back to
// make decisions.
type Report struct {
	ID         string    `json:"id"`
	ReviewID   string    `json:"review_id"`
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateReportReason requires 1..500 characters.
func ValidateReportReason(reason string) error {
	n := utf8.RuneCountInString(reason)
	if n < 1 || n > MaxReportReasonLength {
		return apperrors.InvalidArgument(fmt.Sprintf("reason must be between 1 and %d characters, got %d", MaxReportReasonLength, n))
	}
	return nil
}

// NewReport validates reason and returns a report with a fresh id.
func NewReport(reviewID, reporterID, reason string, now time.Time) (*Report, error) {
	if err := ValidateReportReason(reason); err != nil {
		return nil, err
	}
	return &Report{
		ID:         uuid.New().String(),
		ReviewID:   reviewID,
		ReporterID: reporterID,
		Reason:     reason,
		CreatedAt:  now,
	}, nil
}
