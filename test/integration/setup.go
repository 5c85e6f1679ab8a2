package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/vncsmyrnk/ballot/internal/adapters/handler/http"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/core/services"
)

const testSecret = "test-secret"

type TestApp struct {
	DB        *sql.DB
	Store     *repository.Store
	Server    *httptest.Server
	Client    *http.Client
	Container testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupRedisContainer(ctx context.Context) (testcontainers.Container, string, error) {
	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, "", fmt.Errorf("failed to start redis container: %w", err)
	}

	addr, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		return nil, "", err
	}

	return redisContainer, addr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	err = applyMigrations(db)
	require.NoError(t, err)

	app := newTestApp(t, repository.NewPostgresStore(db), nil)
	app.DB = db
	app.Container = dbContainer
	return app
}

func setupRedisTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	redisContainer, addr, err := setupRedisContainer(ctx)
	require.NoError(t, err)

	client, err := redis.Open(ctx, redis.Options{Addr: addr})
	require.NoError(t, err)

	app := newTestApp(t, repository.NewRedisStore(client), nil)
	app.Container = redisContainer
	return app
}

// setupApps runs fn once per durable store driver.
func setupApps(t *testing.T, fn func(t *testing.T, app *TestApp)) {
	t.Run("postgres", func(t *testing.T) {
		app := setupTestApp(t)
		defer app.Teardown(t)
		fn(t, app)
	})
	t.Run("redis", func(t *testing.T) {
		app := setupRedisTestApp(t)
		defer app.Teardown(t)
		fn(t, app)
	})
}

func newTestApp(t *testing.T, store *repository.Store, verifier ports.TokenVerifier) *TestApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := ports.SystemClock{}

	candidateSvc := services.NewCandidateService(store.Candidates, clock, logger)
	voteSvc := services.NewVoteService(store.Votes, clock, logger)
	authSvc := services.NewAuthService(store.Users, verifier, clock, services.AuthOptions{
		JWTSecret:      testSecret,
		GoogleClientID: "test-client",
		AdminEmails:    []string{"admin@example.com"},
	}, logger)

	router := handler.NewHandler(handler.Handlers{
		Candidates: handler.NewCandidateHandler(candidateSvc),
		Votes:      handler.NewVoteHandler(voteSvc, services.NewReportService(candidateSvc)),
		Users:      handler.NewUserHandler(services.NewUserService(store.Users)),
		Auth:       handler.NewAuthHandler(authSvc, "https://example.com/redirect", handler.CookieOptions{SameSite: http.SameSiteLaxMode}),
	}, handler.RouterOptions{
		JWTSecret: testSecret,
		Access:    services.NewAccessService(store.Users, logger),
		Logger:    logger,
	})

	server := httptest.NewServer(router)

	return &TestApp{
		Store:  store,
		Server: server,
		Client: server.Client(),
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	if err := app.Store.Close(); err != nil {
		t.Logf("failed to close store: %s", err)
	}
	if app.Container != nil {
		if err := app.Container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

func (app *TestApp) createUserAndToken(t *testing.T, role domain.Role) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	err := app.Store.Users.Create(context.Background(), &domain.User{
		ID:        userID,
		Email:     fmt.Sprintf("user-%s@example.com", userID),
		Name:      fmt.Sprintf("User %s", userID),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"email": fmt.Sprintf("user-%s@example.com", userID),
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return userID, signedToken
}

func (app *TestApp) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func (app *TestApp) createCandidate(t *testing.T, adminToken, name, party string) domain.Candidate {
	t.Helper()

	resp := app.request(t, http.MethodPost, "/api/candidates", adminToken, map[string]any{"name": name, "party": party})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		Response domain.Candidate `json:"response"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created.Response
}

func (app *TestApp) vote(t *testing.T, token string, candidateID uuid.UUID) int {
	t.Helper()

	resp := app.request(t, http.MethodPost, "/api/candidates/vote/"+candidateID.String(), token, nil)
	defer resp.Body.Close()
	return resp.StatusCode
}
