package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/logging"
	"golang.org/x/sync/errgroup"
)

const auditConcurrency = 8

type auditService struct {
	candidateRepo ports.CandidateRepository
	userRepo      ports.UserRepository
	logger        *slog.Logger
}

func NewAuditService(candidateRepo ports.CandidateRepository, userRepo ports.UserRepository, logger *slog.Logger) ports.AuditService {
	return &auditService{
		candidateRepo: candidateRepo,
		userRepo:      userRepo,
		logger:        logging.Resolve(logger),
	}
}

// AuditAll checks every candidate's count against its vote records and
// every voter's flag against the recorded votes. It never writes.
//
// Flagged voters are read before the candidates. A voter is flagged in the
// same commit that stores its record, so every flag in that snapshot has a
// record the scan will see.
func (s *auditService) AuditAll(ctx context.Context) ([]domain.Discrepancy, error) {
	flagged, err := s.userRepo.ListVoted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voters: %w", err)
	}

	tallies, err := s.candidateRepo.ListTallies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	var (
		mu         sync.Mutex
		mismatched []domain.Discrepancy
		voters     = make(map[uuid.UUID]int)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)

	for _, t := range tallies {
		candidateID := t.CandidateID
		g.Go(func() error {
			candidate, err := s.candidateRepo.GetByID(gctx, candidateID)
			if err != nil {
				if domain.KindOf(err) == domain.KindNotFound {
					// deleted while the audit was running
					return nil
				}
				return fmt.Errorf("failed to audit candidate %s: %w", candidateID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if candidate.VoteCount != int64(len(candidate.Votes)) {
				mismatched = append(mismatched, domain.Discrepancy{
					CandidateID: candidate.ID,
					Reason:      fmt.Sprintf("vote count %d does not match %d vote records", candidate.VoteCount, len(candidate.Votes)),
				})
			}
			for _, v := range candidate.Votes {
				voters[v.VoterID]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(mismatched, func(a, b domain.Discrepancy) int {
		return compareIDs(a.CandidateID, b.CandidateID)
	})
	discrepancies := mismatched

	duplicated := make([]uuid.UUID, 0)
	for voterID, n := range voters {
		if n > 1 {
			duplicated = append(duplicated, voterID)
		}
	}
	slices.SortFunc(duplicated, compareIDs)
	for _, voterID := range duplicated {
		discrepancies = append(discrepancies, domain.Discrepancy{
			VoterID: voterID,
			Reason:  fmt.Sprintf("voter has %d vote records", voters[voterID]),
		})
	}

	orphaned := make([]uuid.UUID, 0)
	for _, u := range flagged {
		if voters[u.ID] == 0 {
			orphaned = append(orphaned, u.ID)
		}
	}
	slices.SortFunc(orphaned, compareIDs)
	for _, voterID := range orphaned {
		discrepancies = append(discrepancies, domain.Discrepancy{
			VoterID: voterID,
			Reason:  "voter is marked as voted but has no vote record",
		})
	}

	s.logger.Info("tally audit finished",
		"event", "tally_audit_finished",
		"module", "core/services",
		"layer", "application",
		"candidates", len(tallies),
		"discrepancies", len(discrepancies),
	)
	return discrepancies, nil
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
