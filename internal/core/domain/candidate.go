package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Candidate struct {
	ID        uuid.UUID    `json:"id" swaggertype:"string" format:"uuid"`
	Name      string       `json:"name"`
	Party     string       `json:"party"`
	Age       *int         `json:"age,omitempty"`
	Votes     []VoteRecord `json:"votes"`
	VoteCount int64        `json:"vote_count"`
	CreatedAt time.Time    `json:"created_at"`
}

// MaxCandidateAge bounds the age a store has to hold.
const MaxCandidateAge = 150

// ValidateAge accepts a missing age or one in [0, MaxCandidateAge].
func ValidateAge(age *int) error {
	if age == nil {
		return nil
	}
	if *age < 0 {
		return NewValidationError("age must not be negative")
	}
	if *age > MaxCandidateAge {
		return NewValidationError("age must not exceed %d", MaxCandidateAge)
	}
	return nil
}

// CandidatePatch holds the fields of an update. Nil fields are left untouched.
type CandidatePatch struct {
	Name  *string
	Party *string
	Age   *int
}

func (p CandidatePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return NewValidationError("name must not be empty")
	}
	if p.Party != nil && strings.TrimSpace(*p.Party) == "" {
		return NewValidationError("party must not be empty")
	}
	return ValidateAge(p.Age)
}

// Apply copies the set fields of the patch onto c.
func (p CandidatePatch) Apply(c *Candidate) {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Party != nil {
		c.Party = strings.TrimSpace(*p.Party)
	}
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
}
