package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

func TestVoteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	setupApps(t, func(t *testing.T, app *TestApp) {
		_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)
		voterID, voterToken := app.createUserAndToken(t, domain.RoleVoter)
		candidate := app.createCandidate(t, adminToken, "A", "X")

		require.Equal(t, http.StatusNotFound, app.vote(t, voterToken, uuid.New()))
		require.Equal(t, http.StatusOK, app.vote(t, voterToken, candidate.ID))
		require.Equal(t, http.StatusConflict, app.vote(t, voterToken, candidate.ID))
		require.Equal(t, http.StatusForbidden, app.vote(t, adminToken, candidate.ID))

		stored, err := app.Store.Candidates.GetByID(context.Background(), candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.VoteCount)
		require.Len(t, stored.Votes, 1)
		assert.Equal(t, voterID, stored.Votes[0].VoterID)

		user, err := app.Store.Users.GetByID(context.Background(), voterID)
		require.NoError(t, err)
		assert.True(t, user.HasVoted)
	})
}

func TestConcurrentVotesSameVoter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	setupApps(t, func(t *testing.T, app *TestApp) {
		_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)
		_, voterToken := app.createUserAndToken(t, domain.RoleVoter)
		first := app.createCandidate(t, adminToken, "A", "X")
		second := app.createCandidate(t, adminToken, "B", "Y")

		const attempts = 20
		statuses := make([]int, attempts)
		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				target := first.ID
				if i%2 == 1 {
					target = second.ID
				}
				statuses[i] = app.vote(t, voterToken, target)
			}()
		}
		wg.Wait()

		var ok, conflict int
		for _, s := range statuses {
			switch s {
			case http.StatusOK:
				ok++
			case http.StatusConflict:
				conflict++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, attempts-1, conflict)

		tallies, err := app.Store.Candidates.ListTallies(context.Background())
		require.NoError(t, err)
		var total int64
		for _, tally := range tallies {
			total += tally.Count
		}
		assert.Equal(t, int64(1), total)
	})
}

func TestConcurrentVotesSameCandidate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	setupApps(t, func(t *testing.T, app *TestApp) {
		_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)
		candidate := app.createCandidate(t, adminToken, "A", "X")

		const voters = 20
		tokens := make([]string, voters)
		for i := range tokens {
			_, tokens[i] = app.createUserAndToken(t, domain.RoleVoter)
		}

		statuses := make([]int, voters)
		var wg sync.WaitGroup
		for i, token := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				statuses[i] = app.vote(t, token, candidate.ID)
			}()
		}
		wg.Wait()

		var successes int64
		for _, s := range statuses {
			if s == http.StatusOK {
				successes++
			}
		}
		assert.Equal(t, int64(voters), successes)

		stored, err := app.Store.Candidates.GetByID(context.Background(), candidate.ID)
		require.NoError(t, err)
		assert.Equal(t, successes, stored.VoteCount)
		assert.Len(t, stored.Votes, int(successes))
		for i := 1; i < len(stored.Votes); i++ {
			assert.False(t, stored.Votes[i].VotedAt.Before(stored.Votes[i-1].VotedAt), "votes must be recorded in the order they were applied")
		}
	})
}

func TestVoteCountReport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	setupApps(t, func(t *testing.T, app *TestApp) {
		_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)

		parties := []string{"three", "one", "five", "zero"}
		wanted := []int{3, 1, 5, 0}
		for i, party := range parties {
			candidate := app.createCandidate(t, adminToken, "Candidate "+party, party)
			for range wanted[i] {
				_, token := app.createUserAndToken(t, domain.RoleVoter)
				require.Equal(t, http.StatusOK, app.vote(t, token, candidate.ID))
			}
		}

		resp := app.request(t, http.MethodGet, "/api/candidates/vote/count", "", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var report []domain.PartyTally
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
		assert.Equal(t, []domain.PartyTally{
			{Party: "five", Count: 5},
			{Party: "three", Count: 3},
			{Party: "one", Count: 1},
			{Party: "zero", Count: 0},
		}, report)
	})
}

func TestVoteRowsMatchCounters(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)
	voterID, voterToken := app.createUserAndToken(t, domain.RoleVoter)
	candidate := app.createCandidate(t, adminToken, "A", "X")
	require.Equal(t, http.StatusOK, app.vote(t, voterToken, candidate.ID))

	var rows int
	err := app.DB.QueryRow("SELECT COUNT(*) FROM candidate_votes WHERE candidate_id=$1 AND user_id=$2", candidate.ID, voterID).Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	var voteCount int64
	var hasVoted bool
	require.NoError(t, app.DB.QueryRow("SELECT vote_count FROM candidates WHERE id=$1", candidate.ID).Scan(&voteCount))
	require.NoError(t, app.DB.QueryRow("SELECT has_voted FROM users WHERE id=$1", voterID).Scan(&hasVoted))
	assert.Equal(t, int64(1), voteCount)
	assert.True(t, hasVoted)
}

func TestFailedVoteLeavesNoTrace(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)
	voterID, voterToken := app.createUserAndToken(t, domain.RoleVoter)
	candidate := app.createCandidate(t, adminToken, "A", "X")

	// The last write of the vote transaction fails after the vote row and
	// the counter were already written.
	_, err := app.DB.Exec(`
		CREATE FUNCTION reject_has_voted() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'has_voted is read-only';
		END;
		$$ LANGUAGE plpgsql;

		CREATE TRIGGER reject_has_voted BEFORE UPDATE OF has_voted ON users
			FOR EACH ROW EXECUTE FUNCTION reject_has_voted();
	`)
	require.NoError(t, err)

	resp := app.request(t, http.MethodPost, "/api/candidates/vote/"+candidate.ID.String(), voterToken, nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, domain.KindStoreUnavailable, body["error"])

	var (
		voteCount int64
		rows      int
		hasVoted  bool
	)
	require.NoError(t, app.DB.QueryRow("SELECT vote_count FROM candidates WHERE id=$1", candidate.ID).Scan(&voteCount))
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM candidate_votes WHERE user_id=$1", voterID).Scan(&rows))
	require.NoError(t, app.DB.QueryRow("SELECT has_voted FROM users WHERE id=$1", voterID).Scan(&hasVoted))
	assert.Equal(t, int64(0), voteCount)
	assert.Equal(t, 0, rows)
	assert.False(t, hasVoted)

	// once the store recovers the same request succeeds exactly once
	_, err = app.DB.Exec(`DROP TRIGGER reject_has_voted ON users`)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, app.vote(t, voterToken, candidate.ID))
	require.Equal(t, http.StatusConflict, app.vote(t, voterToken, candidate.ID))
}
