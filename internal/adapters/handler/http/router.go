package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/logging"

	_ "github.com/vncsmyrnk/ballot/internal/adapters/handler/http/docs"
)

type Handlers struct {
	Candidates *CandidateHandler
	Votes      *VoteHandler
	Users      *UserHandler
	Auth       *AuthHandler
	Health     *HealthHandler
}

type RouterOptions struct {
	JWTSecret string
	Access    ports.AccessService
	Logger    *slog.Logger
}

func NewHandler(h Handlers, opts RouterOptions) http.Handler {
	authenticate := Authenticate(opts.JWTSecret)
	requireAdmin := RequireAdmin(opts.Access)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logging.Resolve(opts.Logger)))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if h.Health != nil {
		r.Get("/healthz", h.Health.Health)
	}

	if h.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/google/callback", h.Auth.GoogleCallback)
			r.Post("/logout", h.Auth.Logout)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/candidates", func(r chi.Router) {
			r.Get("/vote/count", h.Votes.VoteCount)
			r.Get("/{candidateID}", h.Candidates.GetCandidateName)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/vote/{candidateID}", h.Votes.CastVote)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/", h.Candidates.CreateCandidate)
					r.Put("/{candidateID}", h.Candidates.UpdateCandidate)
					r.Delete("/{candidateID}", h.Candidates.DeleteCandidate)
				})
			})
		})

		if h.Users != nil {
			r.With(authenticate).Get("/users/me", h.Users.GetMe)
		}
	})

	return r
}
