package redis

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type voteRepository struct {
	client *goredis.Client
}

func NewVoteRepository(client *goredis.Client) ports.VoteRepository {
	return &voteRepository{
		client: client,
	}
}

// CastVote watches the candidate and user hashes, checks eligibility and
// queues the writes in MULTI. A concurrent change to either hash aborts the
// EXEC and the whole check runs again, so the vote is stamped by the
// attempt that commits.
func (r *voteRepository) CastVote(ctx context.Context, candidateID, voterID uuid.UUID, clock ports.Clock) error {
	ck, uk := candidateKey(candidateID), userKey(voterID)

	return watchWithRetry(ctx, r.client, "cast vote", func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, ck).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrCandidateNotFound
		}

		vals, err := tx.HMGet(ctx, uk, "role", "has_voted").Result()
		if err != nil {
			return err
		}
		if vals[0] == nil {
			return domain.ErrUserNotFound
		}

		var user struct {
			Role     string `mapstructure:"role"`
			HasVoted bool   `mapstructure:"has_voted"`
		}
		if err := decodeHash(map[string]string{"role": toString(vals[0]), "has_voted": toString(vals[1])}, &user); err != nil {
			return err
		}
		role, err := domain.ParseRole(user.Role)
		if err != nil {
			return domain.NewStoreError("decode user role", err)
		}
		if role == domain.RoleAdmin {
			return domain.ErrAdminCannotVote
		}
		if user.HasVoted {
			return domain.ErrAlreadyVoted
		}

		// each attempt stamps its own record
		record, err := json.Marshal(domain.VoteRecord{VoterID: voterID, VotedAt: clock.Now()})
		if err != nil {
			return domain.NewStoreError("encode vote record", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.RPush(ctx, votesKey(candidateID), record)
			pipe.HIncrBy(ctx, ck, "vote_count", 1)
			pipe.HSet(ctx, uk, "has_voted", boolField(true))
			pipe.SAdd(ctx, votedUsersKey, voterID.String())
			return nil
		})
		return err
	}, ck, uk)
}
