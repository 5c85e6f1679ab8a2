package domain

import (
	"time"

	"github.com/google/uuid"
)

type VoteRecord struct {
	VoterID uuid.UUID `json:"user" swaggertype:"string" format:"uuid"`
	VotedAt time.Time `json:"voted_at"`
}
