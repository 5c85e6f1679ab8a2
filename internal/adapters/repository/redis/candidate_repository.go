package redis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type candidateRepository struct {
	client *goredis.Client
}

func NewCandidateRepository(client *goredis.Client) ports.CandidateRepository {
	return &candidateRepository{
		client: client,
	}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	seq, err := r.client.Incr(ctx, candidateSeqKey).Result()
	if err != nil {
		return domain.NewStoreError("allocate candidate sequence", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, candidateKey(candidate.ID), candidateFields(candidate))
		pipe.ZAdd(ctx, candidatesKey, goredis.Z{Score: float64(seq), Member: candidate.ID.String()})
		return nil
	})
	if err != nil {
		return domain.NewStoreError("insert candidate", err)
	}
	return nil
}

func (r *candidateRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CandidatePatch) (*domain.Candidate, error) {
	var updated *domain.Candidate
	key := candidateKey(id)

	err := watchWithRetry(ctx, r.client, "update candidate", func(tx *goredis.Tx) error {
		// plain reads: an EXEC here would drop the WATCH
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return domain.ErrCandidateNotFound
		}
		rawVotes, err := tx.LRange(ctx, votesKey(id), 0, -1).Result()
		if err != nil {
			return err
		}
		candidate, err := decodeCandidate(data, rawVotes)
		if err != nil {
			return err
		}

		patch.Apply(candidate)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			fields := candidateFields(candidate)
			delete(fields, "vote_count")
			pipe.HSet(ctx, key, fields)
			return nil
		})
		if err != nil {
			return err
		}
		updated = candidate
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *candidateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	key := candidateKey(id)

	return watchWithRetry(ctx, r.client, "delete candidate", func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrCandidateNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key, votesKey(id))
			pipe.ZRem(ctx, candidatesKey, id.String())
			return nil
		})
		return err
	}, key)
}

func (r *candidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	candidate, err := readCandidate(ctx, r.client, id)
	if err != nil {
		return nil, storeErr("get candidate", err)
	}
	return candidate, nil
}

func (r *candidateRepository) GetAll(ctx context.Context) ([]*domain.Candidate, error) {
	ids, err := r.client.ZRange(ctx, candidatesKey, 0, -1).Result()
	if err != nil {
		return nil, domain.NewStoreError("list candidates", err)
	}

	candidates := make([]*domain.Candidate, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.NewStoreError("decode candidate id", err)
		}
		candidate, err := readCandidate(ctx, r.client, id)
		if errors.Is(err, domain.ErrCandidateNotFound) {
			continue
		}
		if err != nil {
			return nil, storeErr("get candidate", err)
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

func (r *candidateRepository) ListTallies(ctx context.Context) ([]domain.Tally, error) {
	ids, err := r.client.ZRange(ctx, candidatesKey, 0, -1).Result()
	if err != nil {
		return nil, domain.NewStoreError("list candidates", err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*goredis.SliceCmd, len(ids))
	for i, raw := range ids {
		cmds[i] = pipe.HMGet(ctx, keyPrefix+"candidate:"+raw, "party", "vote_count")
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, domain.NewStoreError("list tallies", err)
		}
	}

	tallies := make([]domain.Tally, 0, len(ids))
	for i, raw := range ids {
		var row struct {
			Party     string `mapstructure:"party"`
			VoteCount int64  `mapstructure:"vote_count"`
		}
		vals := cmds[i].Val()
		if vals[0] == nil {
			// deleted between ZRANGE and HMGET
			continue
		}
		if err := decodeHash(map[string]string{"party": toString(vals[0]), "vote_count": toString(vals[1])}, &row); err != nil {
			return nil, domain.NewStoreError("decode tally", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.NewStoreError("decode candidate id", err)
		}
		tallies = append(tallies, domain.Tally{CandidateID: id, Party: row.Party, Count: row.VoteCount})
	}
	return tallies, nil
}

// readCandidate loads the candidate hash and its vote records inside one
// MULTI so the count and the records are read at the same point in time.
func readCandidate(ctx context.Context, c *goredis.Client, id uuid.UUID) (*domain.Candidate, error) {
	var (
		hash  *goredis.MapStringStringCmd
		votes *goredis.StringSliceCmd
	)
	_, err := c.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		hash = pipe.HGetAll(ctx, candidateKey(id))
		votes = pipe.LRange(ctx, votesKey(id), 0, -1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(hash.Val()) == 0 {
		return nil, domain.ErrCandidateNotFound
	}
	return decodeCandidate(hash.Val(), votes.Val())
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
