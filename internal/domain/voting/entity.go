package voting

import (
	"time"

	"github.com/google/uuid"
)

// AllowedVoter scopes who may vote in an election
type AllowedVoter struct {
	ElectionID uuid.UUID `db:"election_id" json:"election_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Candidate belongs to exactly one (election, position). VoteCount is a
// cached counter; the votes table is the ground truth it must match.
type Candidate struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ElectionID uuid.UUID `db:"election_id" json:"election_id"`
	Position   string    `db:"position" json:"position"`
	Name       string    `db:"name" json:"name"`
	VoteCount  int64     `db:"vote_count" json:"vote_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Vote is one ballot. Append-only: never mutated or deleted.
type Vote struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ElectionID  uuid.UUID `db:"election_id" json:"election_id"`
	VoterID     string    `db:"voter_id" json:"voter_id"`
	CandidateID uuid.UUID `db:"candidate_id" json:"candidate_id"`
	Position    string    `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Receipt acknowledges an accepted ballot
type Receipt struct {
	VoteID uuid.UUID `json:"vote_id"`
	CastAt time.Time `json:"cast_at"`
}
