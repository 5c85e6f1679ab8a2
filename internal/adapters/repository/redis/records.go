package redis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type candidateHash struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	Party     string `mapstructure:"party"`
	Age       string `mapstructure:"age"`
	VoteCount int64  `mapstructure:"vote_count"`
	CreatedAt string `mapstructure:"created_at"`
}

type userHash struct {
	ID        string `mapstructure:"id"`
	Email     string `mapstructure:"email"`
	Name      string `mapstructure:"name"`
	Role      string `mapstructure:"role"`
	HasVoted  bool   `mapstructure:"has_voted"`
	CreatedAt string `mapstructure:"created_at"`
}

func decodeHash(data map[string]string, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

func candidateFields(c *domain.Candidate) map[string]any {
	age := ""
	if c.Age != nil {
		age = strconv.Itoa(*c.Age)
	}
	return map[string]any{
		"id":         c.ID.String(),
		"name":       c.Name,
		"party":      c.Party,
		"age":        age,
		"vote_count": c.VoteCount,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeCandidate(data map[string]string, rawVotes []string) (*domain.Candidate, error) {
	var h candidateHash
	if err := decodeHash(data, &h); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}

	id, err := uuid.Parse(h.ID)
	if err != nil {
		return nil, fmt.Errorf("decode candidate id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode candidate created_at: %w", err)
	}

	c := &domain.Candidate{
		ID:        id,
		Name:      h.Name,
		Party:     h.Party,
		VoteCount: h.VoteCount,
		CreatedAt: createdAt,
		Votes:     make([]domain.VoteRecord, 0, len(rawVotes)),
	}
	if h.Age != "" {
		age, err := strconv.Atoi(h.Age)
		if err != nil {
			return nil, fmt.Errorf("decode candidate age: %w", err)
		}
		c.Age = &age
	}

	for _, raw := range rawVotes {
		var v domain.VoteRecord
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode vote record: %w", err)
		}
		c.Votes = append(c.Votes, v)
	}
	return c, nil
}

func userFields(u *domain.User) map[string]any {
	return map[string]any{
		"id":         u.ID.String(),
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role.String(),
		"has_voted":  boolField(u.HasVoted),
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decodeUser(data map[string]string) (*domain.User, error) {
	var h userHash
	if err := decodeHash(data, &h); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	id, err := uuid.Parse(h.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id: %w", err)
	}
	role, err := domain.ParseRole(h.Role)
	if err != nil {
		return nil, fmt.Errorf("decode user role: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, h.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode user created_at: %w", err)
	}

	return &domain.User{
		ID:        id,
		Email:     h.Email,
		Name:      h.Name,
		Role:      role,
		HasVoted:  h.HasVoted,
		CreatedAt: createdAt,
	}, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
