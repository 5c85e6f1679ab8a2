package services

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type reportService struct {
	candidates ports.CandidateService
}

func NewReportService(candidates ports.CandidateService) ports.ReportService {
	return &reportService{
		candidates: candidates,
	}
}

func (s *reportService) Report(ctx context.Context) ([]domain.PartyTally, error) {
	tallies, err := s.candidates.ListSortedByTally(ctx)
	if err != nil {
		return nil, err
	}

	report := make([]domain.PartyTally, 0, len(tallies))
	for _, t := range tallies {
		report = append(report, domain.PartyTally{Party: t.Party, Count: t.Count})
	}
	return report, nil
}
