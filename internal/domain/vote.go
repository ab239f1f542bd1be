package domain

import (
	"fmt"
	"time"

	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// VoteValue is a helpfulness vote: +1 helpful, -1 unhelpful.
type VoteValue int

const (
	VoteHelpful   VoteValue = 1
	VoteUnhelpful VoteValue = -1
)

// String returns "helpful" or "unhelpful".
func (v VoteValue) String() string {
	if v == VoteHelpful {
		return "helpful"
	}
	return "unhelpful"
}

// Vote is one voter's current opinion of a review. A repeat vote replaces the
// previous one.
type Vote struct {
	ReviewID  string    `json:"review_id"`
	VoterID   string    `json:"voter_id"`
	Value     VoteValue `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// ParseVoteValue accepts exactly 1 or -1.
func ParseVoteValue(v int) (VoteValue, error) {
	switch VoteValue(v) {
	case VoteHelpful, VoteUnhelpful:
		return VoteValue(v), nil
	}
	return 0, apperrors.InvalidArgument(fmt.Sprintf("value must be 1 or -1, got %d", v))
}

// NewVote validates value and stamps the vote with now.
func NewVote(reviewID, voterID string, value int, now time.Time) (*Vote, error) {
	v, err := ParseVoteValue(value)
	if err != nil {
		return nil, err
	}
	return &Vote{ReviewID: reviewID, VoterID: voterID, Value: v, CreatedAt: now}, nil
}
