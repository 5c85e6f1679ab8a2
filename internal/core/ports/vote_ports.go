package ports

import (
	"context"

	"github.com/google/uuid"
)

type VoteRepository interface {
	// CastVote checks eligibility and records the vote as one atomic unit.
	// Checks run in order: candidate exists, user exists, user is not an
	// admin, user has not voted. On success the candidate gains a vote
	// record stamped with clock once every lock is held, its count grows
	// by one and the user is marked as having voted.
	CastVote(ctx context.Context, candidateID, voterID uuid.UUID, clock Clock) error
}

type VoteInput struct {
	CandidateID string
	VoterID     uuid.UUID
}

type VoteService interface {
	CastVote(ctx context.Context, input VoteInput) error
}
