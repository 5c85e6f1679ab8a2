package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

const testSecret = "test-secret"

type stubAuthService struct {
	token string
	err   error
}

func (s *stubAuthService) LoginWithGoogle(ctx context.Context, googleToken string) (string, error) {
	return s.token, s.err
}

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

// unavailableStore fails every call the way an adapter does when its
// backend is unreachable.
type unavailableStore struct {
	ports.CandidateRepository
}

func (unavailableStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	return nil, domain.NewStoreError("get candidate", errConnRefused)
}

func (unavailableStore) ListTallies(ctx context.Context) ([]domain.Tally, error) {
	return nil, domain.NewStoreError("list tallies", errConnRefused)
}

func (unavailableStore) CastVote(ctx context.Context, candidateID, voterID uuid.UUID, clock ports.Clock) error {
	return domain.NewStoreError("cast vote", errConnRefused)
}

type testApp struct {
	store  *memory.Store
	server *httptest.Server
	auth   *stubAuthService
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	store := memory.NewStore()
	return setupAppWith(t, store, store, store)
}

// setupAppWith keeps users in store and lets tests swap the candidate and
// vote repositories.
func setupAppWith(t *testing.T, store *memory.Store, candidates ports.CandidateRepository, votes ports.VoteRepository) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := ports.SystemClock{}

	candidateSvc := services.NewCandidateService(candidates, clock, logger)
	voteSvc := services.NewVoteService(votes, clock, logger)
	auth := &stubAuthService{}

	handler := NewHandler(Handlers{
		Candidates: NewCandidateHandler(candidateSvc),
		Votes:      NewVoteHandler(voteSvc, services.NewReportService(candidateSvc)),
		Users:      NewUserHandler(services.NewUserService(store.Users())),
		Auth:       NewAuthHandler(auth, "/welcome", CookieOptions{Secure: true, SameSite: http.SameSiteLaxMode}),
		Health:     NewHealthHandler(store),
	}, RouterOptions{
		JWTSecret: testSecret,
		Access:    services.NewAccessService(store.Users(), logger),
		Logger:    logger,
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &testApp{store: store, server: server, auth: auth}
}

func (app *testApp) createUserAndToken(t *testing.T, role domain.Role) (uuid.UUID, string) {
	t.Helper()
	userID := uuid.New()
	err := app.store.Users().Create(context.Background(), &domain.User{
		ID:    userID,
		Email: userID.String() + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return userID, signToken(t, userID, time.Now().Add(15*time.Minute))
}

func signToken(t *testing.T, userID uuid.UUID, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (app *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, app.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := app.server.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCandidateLifecycle(t *testing.T) {
	app := setupApp(t)
	_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)

	// 1. Create
	resp := app.do(t, http.MethodPost, "/api/candidates", adminToken, map[string]any{"name": "A", "party": "X", "age": 44})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode[createCandidateResponse](t, resp).Response
	require.NotNil(t, created)
	assert.Equal(t, "A", created.Name)
	assert.NotEqual(t, uuid.Nil, created.ID)

	// 2. Public name lookup
	resp = app.do(t, http.MethodGet, "/api/candidates/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"name": "A"}, decode[map[string]string](t, resp))

	// 3. Update
	resp = app.do(t, http.MethodPut, "/api/candidates/"+created.ID.String(), adminToken, map[string]any{"party": "Y"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[domain.Candidate](t, resp)
	assert.Equal(t, "Y", updated.Party)
	assert.Equal(t, "A", updated.Name)

	// 4. Delete
	resp = app.do(t, http.MethodDelete, "/api/candidates/"+created.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/candidates/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[errorResponse](t, resp)
	assert.Equal(t, domain.KindNotFound, body.Error)
	assert.Equal(t, "Candidate not found", body.Message)

	resp = app.do(t, http.MethodDelete, "/api/candidates/"+created.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.do(t, http.MethodPut, "/api/candidates/"+uuid.NewString(), adminToken, map[string]any{"name": "B"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCandidateAdminGuard(t *testing.T) {
	app := setupApp(t)
	_, voterToken := app.createUserAndToken(t, domain.RoleVoter)

	resp := app.do(t, http.MethodPost, "/api/candidates", voterToken, map[string]any{"name": "A", "party": "X"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "User has no admin rights", decode[errorResponse](t, resp).Message)

	resp = app.do(t, http.MethodDelete, "/api/candidates/"+uuid.NewString(), voterToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/candidates", "", map[string]any{"name": "A", "party": "X"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// a token for a user missing from the directory is not an admin
	resp = app.do(t, http.MethodPost, "/api/candidates", signToken(t, uuid.New(), time.Now().Add(time.Minute)), map[string]any{"name": "A", "party": "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCandidateValidation(t *testing.T) {
	app := setupApp(t)
	_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)

	resp := app.do(t, http.MethodPost, "/api/candidates", adminToken, map[string]any{"name": "A"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, domain.KindValidation, decode[errorResponse](t, resp).Error)

	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/api/candidates", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	raw, err := app.server.Client().Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestVoteFlow(t *testing.T) {
	app := setupApp(t)
	_, adminToken := app.createUserAndToken(t, domain.RoleAdmin)
	_, voterToken := app.createUserAndToken(t, domain.RoleVoter)

	resp := app.do(t, http.MethodPost, "/api/candidates", adminToken, map[string]any{"name": "A", "party": "X"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	candidate := decode[createCandidateResponse](t, resp).Response

	// Step 1: unknown candidate
	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+uuid.NewString(), voterToken, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Candidate not found", decode[errorResponse](t, resp).Message)

	// Step 2: vote
	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+candidate.ID.String(), voterToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Vote recorded successfully", decode[messageResponse](t, resp).Message)

	// Step 3: duplicate vote
	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+candidate.ID.String(), voterToken, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, domain.KindAlreadyVoted, decode[errorResponse](t, resp).Error)

	// Step 4: admins are refused
	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+candidate.ID.String(), adminToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, domain.KindAdminCannotVote, decode[errorResponse](t, resp).Error)

	// Step 5: token for an unknown user
	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+candidate.ID.String(), signToken(t, uuid.New(), time.Now().Add(time.Minute)), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found", decode[errorResponse](t, resp).Message)

	// Step 6: count
	resp = app.do(t, http.MethodGet, "/api/candidates/vote/count", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []domain.PartyTally{{Party: "X", Count: 1}}, decode[[]domain.PartyTally](t, resp))
}

func TestVoteRequiresAuthentication(t *testing.T) {
	app := setupApp(t)
	id := uuid.NewString()

	resp := app.do(t, http.MethodPost, "/api/candidates/vote/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+id, "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired := signToken(t, uuid.New(), time.Now().Add(-time.Minute))
	resp = app.do(t, http.MethodPost, "/api/candidates/vote/"+id, expired, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCookieAuthentication(t *testing.T) {
	app := setupApp(t)
	userID, token := app.createUserAndToken(t, domain.RoleVoter)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/api/users/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})

	resp, err := app.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[domain.User](t, resp)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, domain.RoleVoter, me.Role)
}

func TestGoogleCallback(t *testing.T) {
	app := setupApp(t)
	app.auth.token = "signed-token"

	resp, err := app.noRedirectClient().PostForm(app.server.URL+"/auth/google/callback", map[string][]string{"credential": {"google"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/welcome", resp.Header.Get("Location"))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)

	resp, err = app.noRedirectClient().PostForm(app.server.URL+"/auth/google/callback", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	app.auth.err = fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	resp, err = app.noRedirectClient().PostForm(app.server.URL+"/auth/google/callback", map[string][]string{"credential": {"google"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, domain.KindUnauthenticated, decode[errorResponse](t, resp).Error)

	app.auth.err = domain.NewStoreError("get user", errConnRefused)
	resp, err = app.noRedirectClient().PostForm(app.server.URL+"/auth/google/callback", map[string][]string{"credential": {"google"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, domain.KindStoreUnavailable, decode[errorResponse](t, resp).Error)
	assert.Empty(t, resp.Cookies())
}

func (app *testApp) noRedirectClient() *http.Client {
	client := *app.server.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &client
}

func TestHealthAndSwagger(t *testing.T) {
	app := setupApp(t)

	resp := app.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := decode[map[string]any](t, resp)
	assert.Contains(t, doc["paths"], "/api/candidates/vote/{candidateID}")
	assert.Contains(t, doc["paths"], "/auth/google/callback")
}

func TestStoreFailureIsReported(t *testing.T) {
	store := memory.NewStore()
	app := setupAppWith(t, store, unavailableStore{}, unavailableStore{})
	_, voterToken := app.createUserAndToken(t, domain.RoleVoter)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"vote", http.MethodPost, "/api/candidates/vote/" + uuid.NewString(), voterToken},
		{"report", http.MethodGet, "/api/candidates/vote/count", ""},
		{"name lookup", http.MethodGet, "/api/candidates/" + uuid.NewString(), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := app.do(t, tc.method, tc.path, tc.token, nil)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			body := decode[errorResponse](t, resp)
			assert.Equal(t, domain.KindStoreUnavailable, body.Error)
			assert.NotContains(t, body.Message, "connection refused")
		})
	}

	voted, err := store.Users().ListVoted(context.Background())
	require.NoError(t, err)
	assert.Empty(t, voted)
}
