// Package repository opens the store selected by configuration.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ballot/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/ballot/internal/config"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type Store struct {
	Candidates ports.CandidateRepository
	Users      ports.UserRepository
	Votes      ports.VoteRepository

	ping  func(context.Context) error
	close func() error
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.ConnString())
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil

	case config.DriverRedis:
		client, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client), nil

	case config.DriverMemory:
		return NewMemoryStore(memory.NewStore()), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Candidates: postgres.NewCandidateRepository(db),
		Users:      postgres.NewUserRepository(db),
		Votes:      postgres.NewVoteRepository(db),
		ping:       db.PingContext,
		close:      db.Close,
	}
}

func NewRedisStore(client *goredis.Client) *Store {
	return &Store{
		Candidates: redis.NewCandidateRepository(client),
		Users:      redis.NewUserRepository(client),
		Votes:      redis.NewVoteRepository(client),
		ping:       redis.NewPinger(client).Ping,
		close:      client.Close,
	}
}

func NewMemoryStore(s *memory.Store) *Store {
	return &Store{
		Candidates: s,
		Users:      s.Users(),
		Votes:      s,
		ping:       s.Ping,
	}
}
