package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

// Users is the user directory view of a Store. It exists because the
// candidate and user repositories share method names.
type Users struct {
	store *Store
}

func (s *Store) Users() *Users {
	return &Users{store: s}
}

func (u *Users) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStoreError("create user", err)
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[emailKey(user.Email)]; taken && user.Email != "" {
		return domain.ErrEmailTaken
	}
	s.users[user.ID] = &userEntry{user: *user}
	if user.Email != "" {
		s.emails[emailKey(user.Email)] = user.ID
	}
	return nil
}

func (u *Users) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("get user", err)
	}

	s := u.store
	s.mu.RLock()
	entry := s.users[id]
	s.mu.RUnlock()
	if entry == nil {
		return nil, domain.ErrUserNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	user := entry.user
	return &user, nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("get user", err)
	}

	s := u.store
	s.mu.RLock()
	id, ok := s.emails[emailKey(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.GetByID(ctx, id)
}

func (u *Users) ListVoted(ctx context.Context) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStoreError("list voters", err)
	}

	s := u.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var voted []*domain.User
	for _, entry := range s.users {
		entry.mu.Lock()
		if entry.user.HasVoted {
			user := entry.user
			voted = append(voted, &user)
		}
		entry.mu.Unlock()
	}
	return voted, nil
}
