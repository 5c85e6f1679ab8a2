package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type CandidateRepository interface {
	Create(ctx context.Context, candidate *domain.Candidate) error
	Update(ctx context.Context, id uuid.UUID, patch domain.CandidatePatch) (*domain.Candidate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
	// GetAll returns every candidate with its vote records, in insertion order.
	GetAll(ctx context.Context) ([]*domain.Candidate, error)
	// ListTallies returns one tally per candidate, in insertion order.
	ListTallies(ctx context.Context) ([]domain.Tally, error)
}

type CreateCandidateInput struct {
	Name  string
	Party string
	Age   *int
}

type UpdateCandidateInput struct {
	Name  *string
	Party *string
	Age   *int
}

type CandidateService interface {
	Create(ctx context.Context, input CreateCandidateInput) (*domain.Candidate, error)
	Update(ctx context.Context, id string, input UpdateCandidateInput) (*domain.Candidate, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	GetName(ctx context.Context, id string) (string, error)
	ListSortedByTally(ctx context.Context) ([]domain.Tally, error)
}
