// Package redis stores candidates and users in Redis hashes. Votes are
// applied with WATCH/MULTI so the eligibility checks and the writes commit
// together or not at all.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

const (
	keyPrefix    = "ballot:"
	pingTimeout  = 5 * time.Second
	maxTxRetries = 100
)

var errTooManyRetries = errors.New("too many concurrent updates")

func candidateKey(id fmt.Stringer) string { return keyPrefix + "candidate:" + id.String() }
func votesKey(id fmt.Stringer) string     { return keyPrefix + "candidate:" + id.String() + ":votes" }
func userKey(id fmt.Stringer) string      { return keyPrefix + "user:" + id.String() }
func emailKey(email string) string        { return keyPrefix + "user:email:" + normalizeEmail(email) }

const (
	candidatesKey   = keyPrefix + "candidates"
	candidateSeqKey = keyPrefix + "candidates:seq"
	votedUsersKey   = keyPrefix + "users:voted"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// watchWithRetry runs fn under WATCH on keys, retrying when another client
// touched a watched key before EXEC.
func watchWithRetry(ctx context.Context, client *goredis.Client, op string, fn func(*goredis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, fn, keys...)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return storeErr(op, err)
	}
	return domain.NewStoreError(op, errTooManyRetries)
}

// storeErr passes domain errors through and wraps everything else.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.NewStoreError(op, err)
}
