package tally

import (
	"time"

	"github.com/google/uuid"
)

// Row is one candidate's authoritative count for a position
type Row struct {
	CandidateID uuid.UUID `db:"candidate_id" json:"candidate_id"`
	Name        string    `db:"name" json:"name"`
	Position    string    `db:"position" json:"position"`
	Count       int64     `db:"count" json:"count"`
}

// Mismatch is one candidate whose cached counter drifted from the vote
// ledger's grouped truth
type Mismatch struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Position    string    `json:"position"`
	Cached      int64     `json:"cached"`
	Actual      int64     `json:"actual"`
}

// ReconciliationReport compares cached counters against the vote ledger.
// Mismatches are reported, never silently repaired; Repair is explicit.
type ReconciliationReport struct {
	ElectionID uuid.UUID  `json:"election_id"`
	CheckedAt  time.Time  `json:"checked_at"`
	Candidates int        `json:"candidates"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Consistent reports whether every cached counter matches the ledger
func (r *ReconciliationReport) Consistent() bool {
	return len(r.Mismatches) == 0
}

// Snapshot is the audit document archived when an election closes
type Snapshot struct {
	ElectionID uuid.UUID             `json:"election_id"`
	TakenAt    time.Time             `json:"taken_at"`
	Results    map[string][]Row      `json:"results"`
	Report     *ReconciliationReport `json:"reconciliation"`
}
