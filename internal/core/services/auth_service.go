package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/logging"
)

const defaultAccessTokenTTL = 15 * time.Minute

type AuthOptions struct {
	JWTSecret      string
	GoogleClientID string
	AdminEmails    []string
	AccessTokenTTL time.Duration
}

type AuthService struct {
	userRepo            ports.UserRepository
	googleTokenVerifier ports.TokenVerifier
	clock               ports.Clock
	logger              *slog.Logger
	jwtSecret           []byte
	googleClientID      string
	adminEmails         []string
	accessTokenTTL      time.Duration
}

func NewAuthService(userRepo ports.UserRepository, googleTokenVerifier ports.TokenVerifier, clock ports.Clock, opts AuthOptions, logger *slog.Logger) *AuthService {
	logger = logging.Resolve(logger)
	if opts.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set", "module", "core/services", "layer", "application")
	}
	ttl := opts.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}

	return &AuthService{
		userRepo:            userRepo,
		googleTokenVerifier: googleTokenVerifier,
		clock:               clock,
		logger:              logger,
		jwtSecret:           []byte(opts.JWTSecret),
		googleClientID:      opts.GoogleClientID,
		adminEmails:         opts.AdminEmails,
		accessTokenTTL:      ttl,
	}
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, googleToken string) (string, error) {
	payload, err := s.googleTokenVerifier.Verify(ctx, googleToken, s.googleClientID)
	if err != nil {
		return "", fmt.Errorf("%w: invalid google token: %w", domain.ErrUnauthenticated, err)
	}

	return s.login(ctx, payload.Email, payload.Name)
}

func (s *AuthService) login(ctx context.Context, email, name string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		user = &domain.User{
			ID:        uuid.New(),
			Email:     email,
			Name:      name,
			Role:      s.roleFor(email),
			CreatedAt: s.clock.Now(),
		}
		err = s.userRepo.Create(ctx, user)
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			// a concurrent first sign-in registered the email
			user, err = s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return "", fmt.Errorf("failed to get user: %w", err)
			}
		case err != nil:
			return "", fmt.Errorf("failed to create user: %w", err)
		default:
			s.logger.Info("user registered",
				"event", "user_registered",
				"module", "core/services",
				"layer", "application",
				"user_id", user.ID.String(),
				"role", user.Role.String(),
			)
		}
	}

	accessToken, err := s.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// GenerateAccessToken signs a token whose subject is the user's id.
func (s *AuthService) GenerateAccessToken(user *domain.User) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role.String(),
		"exp":   now.Add(s.accessTokenTTL).Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) roleFor(email string) domain.Role {
	for _, admin := range s.adminEmails {
		if strings.EqualFold(admin, email) {
			return domain.RoleAdmin
		}
	}
	return domain.RoleVoter
}
