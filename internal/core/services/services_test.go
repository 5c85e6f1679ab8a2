package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	store      *memory.Store
	clock      *fixedClock
	candidates ports.CandidateService
	votes      ports.VoteService
	reports    ports.ReportService
	access     ports.AccessService
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	clock := &fixedClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	candidates := NewCandidateService(store, clock, quietLogger())
	return &testEnv{
		store:      store,
		clock:      clock,
		candidates: candidates,
		votes:      NewVoteService(store, clock, quietLogger()),
		reports:    NewReportService(candidates),
		access:     NewAccessService(store.Users(), quietLogger()),
	}
}

func (e *testEnv) addCandidate(t *testing.T, name, party string) *domain.Candidate {
	t.Helper()
	c, err := e.candidates.Create(context.Background(), ports.CreateCandidateInput{Name: name, Party: party})
	require.NoError(t, err)
	return c
}

func (e *testEnv) addUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) vote(t *testing.T, candidateID uuid.UUID, voterID uuid.UUID) error {
	t.Helper()
	return e.votes.CastVote(context.Background(), ports.VoteInput{CandidateID: candidateID.String(), VoterID: voterID})
}
