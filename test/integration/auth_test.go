package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/ballot/internal/adapters/repository"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

// MockVerifier for testing
type MockVerifier struct {
	email string
}

func (v *MockVerifier) Verify(ctx context.Context, token string, clientID string) (*ports.TokenPayload, error) {
	if token == "valid_token" {
		return &ports.TokenPayload{Email: v.email, Name: "Test User"}, nil
	}
	return nil, assert.AnError
}

func setupAuthTestApp(t *testing.T, email string) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	err = applyMigrations(db)
	require.NoError(t, err)

	app := newTestApp(t, repository.NewPostgresStore(db), &MockVerifier{email: email})
	app.DB = db
	app.Container = dbContainer
	app.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return app
}

func signIn(t *testing.T, app *TestApp, credential string) *http.Response {
	t.Helper()
	form := url.Values{}
	form.Add("credential", credential)

	resp, err := app.Client.PostForm(app.Server.URL+"/auth/google/callback", form)
	require.NoError(t, err)
	return resp
}

func accessTokenFrom(resp *http.Response) string {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "access_token" {
			return cookie.Value
		}
	}
	return ""
}

func TestAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupAuthTestApp(t, "test@example.com")
	defer app.Teardown(t)

	// 1. First sign-in registers the user
	resp := signIn(t, app, "valid_token")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	location, err := resp.Location()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/redirect", location.String())

	accessToken := accessTokenFrom(resp)
	require.NotEmpty(t, accessToken, "access_token cookie should be set")

	// 2. The cookie authenticates API calls
	resp = app.request(t, http.MethodGet, "/api/users/me", accessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	resp.Body.Close()
	assert.Equal(t, "test@example.com", me.Email)
	assert.Equal(t, domain.RoleVoter, me.Role)

	// 3. Second sign-in reuses the same user
	resp = signIn(t, app, "valid_token")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	var users int
	require.NoError(t, app.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email=$1", "test@example.com").Scan(&users))
	assert.Equal(t, 1, users)
}

func TestAuthFlow_AdminEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupAuthTestApp(t, "admin@example.com")
	defer app.Teardown(t)

	resp := signIn(t, app, "valid_token")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	token := accessTokenFrom(resp)

	candidate := app.createCandidate(t, token, "A", "X")
	assert.Equal(t, http.StatusForbidden, app.vote(t, token, candidate.ID))
}

func TestAuthFlow_Invalid(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupAuthTestApp(t, "test@example.com")
	defer app.Teardown(t)

	resp := signIn(t, app, "bad_token")
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, accessTokenFrom(resp))
}
