package redis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type userRepository struct {
	client *goredis.Client
}

func NewUserRepository(client *goredis.Client) ports.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ok, err := r.client.SetNX(ctx, emailKey(user.Email), user.ID.String(), 0).Result()
	if err != nil {
		return domain.NewStoreError("reserve user email", err)
	}
	if !ok {
		return domain.ErrEmailTaken
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, userKey(user.ID), userFields(user))
		if user.HasVoted {
			pipe.SAdd(ctx, votedUsersKey, user.ID.String())
		}
		return nil
	})
	if err != nil {
		r.client.Del(ctx, emailKey(user.Email))
		return domain.NewStoreError("insert user", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	data, err := r.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, domain.NewStoreError("get user", err)
	}
	if len(data) == 0 {
		return nil, domain.ErrUserNotFound
	}

	user, err := decodeUser(data)
	if err != nil {
		return nil, domain.NewStoreError("get user", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	raw, err := r.client.Get(ctx, emailKey(email)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.NewStoreError("get user by email", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewStoreError("decode user id", err)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) ListVoted(ctx context.Context) ([]*domain.User, error) {
	ids, err := r.client.SMembers(ctx, votedUsersKey).Result()
	if err != nil {
		return nil, domain.NewStoreError("list voters", err)
	}

	users := make([]*domain.User, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.NewStoreError("decode user id", err)
		}
		user, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}
