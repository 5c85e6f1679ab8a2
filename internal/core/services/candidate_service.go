package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/logging"
)

type candidateService struct {
	repo   ports.CandidateRepository
	clock  ports.Clock
	logger *slog.Logger
}

func NewCandidateService(repo ports.CandidateRepository, clock ports.Clock, logger *slog.Logger) ports.CandidateService {
	return &candidateService{
		repo:   repo,
		clock:  clock,
		logger: logging.Resolve(logger),
	}
}

func (s *candidateService) Create(ctx context.Context, input ports.CreateCandidateInput) (*domain.Candidate, error) {
	name := strings.TrimSpace(input.Name)
	party := strings.TrimSpace(input.Party)
	if name == "" {
		return nil, domain.NewValidationError("name is required")
	}
	if party == "" {
		return nil, domain.NewValidationError("party is required")
	}
	if err := domain.ValidateAge(input.Age); err != nil {
		return nil, err
	}

	candidate := &domain.Candidate{
		ID:        uuid.New(),
		Name:      name,
		Party:     party,
		Age:       input.Age,
		Votes:     []domain.VoteRecord{},
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.Create(ctx, candidate); err != nil {
		return nil, err
	}

	s.logger.Info("candidate created",
		"event", "candidate_created",
		"module", "core/services",
		"layer", "application",
		"candidate_id", candidate.ID.String(),
		"party", candidate.Party,
	)
	return candidate, nil
}

func (s *candidateService) Update(ctx context.Context, id string, input ports.UpdateCandidateInput) (*domain.Candidate, error) {
	candidateID, err := parseCandidateID(id)
	if err != nil {
		return nil, err
	}

	patch := domain.CandidatePatch{Name: input.Name, Party: input.Party, Age: input.Age}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	candidate, err := s.repo.Update(ctx, candidateID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("candidate updated",
		"event", "candidate_updated",
		"module", "core/services",
		"layer", "application",
		"candidate_id", candidateID.String(),
	)
	return candidate, nil
}

func (s *candidateService) Delete(ctx context.Context, id string) error {
	candidateID, err := parseCandidateID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, candidateID); err != nil {
		return err
	}

	s.logger.Info("candidate deleted",
		"event", "candidate_deleted",
		"module", "core/services",
		"layer", "application",
		"candidate_id", candidateID.String(),
	)
	return nil
}

func (s *candidateService) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	candidateID, err := parseCandidateID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, candidateID)
}

func (s *candidateService) GetName(ctx context.Context, id string) (string, error) {
	candidate, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return candidate.Name, nil
}

// ListSortedByTally orders candidates by vote count, highest first. Equal
// counts keep the registry's insertion order.
func (s *candidateService) ListSortedByTally(ctx context.Context) ([]domain.Tally, error) {
	tallies, err := s.repo.ListTallies(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(tallies, func(a, b domain.Tally) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		default:
			return 0
		}
	})
	return tallies, nil
}

// An id that does not parse cannot name a stored candidate.
func parseCandidateID(id string) (uuid.UUID, error) {
	candidateID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, domain.ErrCandidateNotFound
	}
	return candidateID, nil
}
