// Package memory keeps candidates and users in process memory. Every
// candidate and user record carries its own mutex; CastVote locks the
// candidate before the user so votes are serialized per candidate and per
// voter without a global write lock.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type candidateEntry struct {
	mu        sync.Mutex
	candidate domain.Candidate
	deleted   bool
}

type userEntry struct {
	mu   sync.Mutex
	user domain.User
}

type Store struct {
	mu         sync.RWMutex
	candidates map[uuid.UUID]*candidateEntry
	order      []uuid.UUID
	users      map[uuid.UUID]*userEntry
	emails     map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		candidates: make(map[uuid.UUID]*candidateEntry),
		users:      make(map[uuid.UUID]*userEntry),
		emails:     make(map[string]uuid.UUID),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Create(ctx context.Context, candidate *domain.Candidate) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("create candidate", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneCandidate(candidate)
	stored.VoteCount = int64(len(stored.Votes))
	s.candidates[candidate.ID] = &candidateEntry{candidate: stored}
	s.order = append(s.order, candidate.ID)
	return nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, patch domain.CandidatePatch) (*domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("update candidate", err)
	}

	entry := s.candidateEntry(id)
	if entry == nil {
		return nil, domain.ErrCandidateNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, domain.ErrCandidateNotFound
	}

	patch.Apply(&entry.candidate)
	updated := cloneCandidate(&entry.candidate)
	return &updated, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("delete candidate", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.candidates[id]
	if !ok {
		return domain.ErrCandidateNotFound
	}

	entry.mu.Lock()
	entry.deleted = true
	entry.mu.Unlock()

	delete(s.candidates, id)
	s.order = slices.DeleteFunc(s.order, func(candidateID uuid.UUID) bool {
		return candidateID == id
	})
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("get candidate", err)
	}

	entry := s.candidateEntry(id)
	if entry == nil {
		return nil, domain.ErrCandidateNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted {
		return nil, domain.ErrCandidateNotFound
	}

	candidate := cloneCandidate(&entry.candidate)
	return &candidate, nil
}

func (s *Store) GetAll(ctx context.Context) ([]*domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("get all candidates", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := make([]*domain.Candidate, 0, len(s.order))
	for _, id := range s.order {
		entry := s.candidates[id]
		entry.mu.Lock()
		candidate := cloneCandidate(&entry.candidate)
		entry.mu.Unlock()
		candidates = append(candidates, &candidate)
	}
	return candidates, nil
}

func (s *Store) ListTallies(ctx context.Context) ([]domain.Tally, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("list tallies", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tallies := make([]domain.Tally, 0, len(s.order))
	for _, id := range s.order {
		entry := s.candidates[id]
		entry.mu.Lock()
		tallies = append(tallies, domain.Tally{
			CandidateID: id,
			Party:       entry.candidate.Party,
			Count:       entry.candidate.VoteCount,
		})
		entry.mu.Unlock()
	}
	return tallies, nil
}

func (s *Store) CastVote(ctx context.Context, candidateID, voterID uuid.UUID, clock ports.Clock) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("cast vote", err)
	}

	s.mu.RLock()
	candidate := s.candidates[candidateID]
	user := s.users[voterID]
	s.mu.RUnlock()

	if candidate == nil {
		return domain.ErrCandidateNotFound
	}
	candidate.mu.Lock()
	defer candidate.mu.Unlock()
	if candidate.deleted {
		return domain.ErrCandidateNotFound
	}

	if user == nil {
		return domain.ErrUserNotFound
	}
	user.mu.Lock()
	defer user.mu.Unlock()

	if user.user.IsAdmin() {
		return domain.ErrAdminCannotVote
	}
	if user.user.HasVoted {
		return domain.ErrAlreadyVoted
	}

	candidate.candidate.Votes = append(candidate.candidate.Votes, domain.VoteRecord{VoterID: voterID, VotedAt: clock.Now()})
	candidate.candidate.VoteCount++
	user.user.HasVoted = true
	return nil
}

func (s *Store) candidateEntry(id uuid.UUID) *candidateEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.candidates[id]
}

func cloneCandidate(c *domain.Candidate) domain.Candidate {
	out := *c
	out.Votes = slices.Clone(c.Votes)
	if out.Votes == nil {
		out.Votes = []domain.VoteRecord{}
	}
	if c.Age != nil {
		age := *c.Age
		out.Age = &age
	}
	return out
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
