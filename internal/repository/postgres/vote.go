package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/review-service/internal/domain"
	"github.com/utafrali/review-service/internal/repository"
	"github.com/utafrali/review-service/pkg/database"
	apperrors "github.com/utafrali/review-service/pkg/errors"
)

// upsertVoteSQL inserts only when the review exists and is active.
//
// FOR SHARE conflicts with the FOR UPDATE taken by ReviewRepository.Mutate.
// A vote that reads the row first blocks the delete until the vote commits.
// A vote that arrives while a delete holds the lock waits, re-checks status
// against the committed row and inserts nothing, so Upsert reports NotFound.
// No vote row is written against a review after its deletion commits.
//
// ON CONFLICT on the (review_id, voter_id) key makes concurrent votes from
// one voter serialize on that row; the last writer's value wins.
const upsertVoteSQL = `
	INSERT INTO review_votes (review_id, voter_id, value, created_at)
	SELECT id, $2, $3, $4
	FROM reviews
	WHERE id = $1 AND status = 'active'
	FOR SHARE
	ON CONFLICT (review_id, voter_id)
	DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at`

// VoteRepository implements repository.VoteRepository on PostgreSQL.
type VoteRepository struct {
	pool database.DBTX
}

// NewVoteRepository creates a PostgreSQL-backed vote ledger.
func NewVoteRepository(pool database.DBTX) *VoteRepository {
	return &VoteRepository{pool: pool}
}

var _ repository.VoteRepository = (*VoteRepository)(nil)

// Upsert records vote in a single statement, overwriting the voter's earlier
// vote on the same review.
func (r *VoteRepository) Upsert(ctx context.Context, vote *domain.Vote) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertVote", upsertVoteSQL)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, upsertVoteSQL,
		vote.ReviewID,
		vote.VoterID,
		int(vote.Value),
		vote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", vote.ReviewID)
	}
	return nil
}
