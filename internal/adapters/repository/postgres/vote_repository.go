package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// CastVote runs the eligibility checks and the write in one transaction.
// The candidate row is locked before the user row, so concurrent votes for
// one candidate queue on the candidate and concurrent votes by one user
// queue on the user.
func (r *voteRepository) CastVote(ctx context.Context, candidateID, voterID uuid.UUID, clock ports.Clock) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM candidates WHERE id = $1 FOR UPDATE`, candidateID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCandidateNotFound
		}
		return domain.NewStoreError("lock candidate", err)
	}

	var (
		role     string
		hasVoted bool
	)
	err = tx.QueryRowContext(ctx, `SELECT role, has_voted FROM users WHERE id = $1 FOR UPDATE`, voterID).Scan(&role, &hasVoted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return domain.NewStoreError("lock user", err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return domain.NewStoreError("decode user role", err)
	}
	if parsed == domain.RoleAdmin {
		return domain.ErrAdminCannotVote
	}
	if hasVoted {
		return domain.ErrAlreadyVoted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate_votes (candidate_id, user_id, voted_at)
		VALUES ($1, $2, $3)
	`, candidateID, voterID, clock.Now())
	if err != nil {
		if isUniqueViolation(err, "candidate_votes_user_id_key") {
			return domain.ErrAlreadyVoted
		}
		return domain.NewStoreError("insert vote record", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE candidates SET vote_count = vote_count + 1 WHERE id = $1`, candidateID)
	if err != nil {
		return domain.NewStoreError("increment vote count", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET has_voted = TRUE WHERE id = $1`, voterID)
	if err != nil {
		return domain.NewStoreError("mark user as voted", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreError("commit transaction", err)
	}
	return nil
}
