package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
	"github.com/vncsmyrnk/ballot/internal/logging"
)

type UserService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) ports.UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

type accessService struct {
	repo   ports.UserRepository
	logger *slog.Logger
}

func NewAccessService(repo ports.UserRepository, logger *slog.Logger) ports.AccessService {
	return &accessService{
		repo:   repo,
		logger: logging.Resolve(logger),
	}
}

// CheckAdminRole reports whether userID names an admin. Lookup failures deny.
func (s *accessService) CheckAdminRole(ctx context.Context, userID uuid.UUID) bool {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("admin check failed",
			"event", "admin_check_failed",
			"module", "core/services",
			"layer", "application",
			"user_id", userID.String(),
			"error", err.Error(),
		)
		return false
	}
	return user.IsAdmin()
}
