package services

import (
	"context"
	"log/slog"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/logging"
)

type voteService struct {
	voteRepo ports.VoteRepository
	clock    ports.Clock
	logger   *slog.Logger
}

func NewVoteService(voteRepo ports.VoteRepository, clock ports.Clock, logger *slog.Logger) ports.VoteService {
	return &voteService{
		voteRepo: voteRepo,
		clock:    clock,
		logger:   logging.Resolve(logger),
	}
}

func (s *voteService) CastVote(ctx context.Context, input ports.VoteInput) error {
	candidateID, err := parseCandidateID(input.CandidateID)
	if err != nil {
		return err
	}

	err = s.voteRepo.CastVote(ctx, candidateID, input.VoterID, s.clock)
	if err != nil {
		attrs := []any{
			"event", "vote_rejected",
			"module", "core/services",
			"layer", "application",
			"candidate_id", candidateID.String(),
			"voter_id", input.VoterID.String(),
			"reason", domain.KindOf(err),
		}
		if domain.IsRetryable(err) {
			s.logger.Error("vote failed", append(attrs, "error", err.Error())...)
		} else {
			s.logger.Info("vote rejected", attrs...)
		}
		return err
	}

	s.logger.Info("vote recorded",
		"event", "vote_recorded",
		"module", "core/services",
		"layer", "application",
		"candidate_id", candidateID.String(),
		"voter_id", input.VoterID.String(),
	)
	return nil
}
