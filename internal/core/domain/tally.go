package domain

import "github.com/google/uuid"

// Tally is a candidate's running vote count as listed by the registry.
type Tally struct {
	CandidateID uuid.UUID
	Party       string
	Count       int64
}

// PartyTally is one row of the public report.
type PartyTally struct {
	Party string `json:"party"`
	Count int64  `json:"count"`
}

// Discrepancy is an inconsistency found by the tally audit.
type Discrepancy struct {
	CandidateID uuid.UUID `json:"candidate_id,omitempty"`
	VoterID     uuid.UUID `json:"voter_id,omitempty"`
	Reason      string    `json:"reason"`
}
