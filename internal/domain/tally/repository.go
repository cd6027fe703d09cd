package tally

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 5 * time.Second

var ErrInternal = errors.New("internal tally error")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CountByPosition groups the vote ledger for one (election, position).
// This is ground truth, independent of the cached candidate counters.
// Candidates with zero votes are included via the left join.
func (r *Repository) CountByPosition(ctx context.Context, electionID uuid.UUID, position string) ([]Row, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows := make([]Row, 0)
	err := r.db.SelectContext(ctx2, &rows, `
		SELECT c.id AS candidate_id, c.name, c.position, COUNT(v.id) AS count
		FROM candidates c
		LEFT JOIN votes v ON v.candidate_id = c.id
		WHERE c.election_id = $1 AND c.position = $2
		GROUP BY c.id, c.name, c.position
		ORDER BY count DESC, c.name
	`, electionID, position)
	if err != nil {
		return nil, fmt.Errorf("%w: count by position", ErrInternal)
	}
	return rows, nil
}

// CountAll groups the vote ledger for every position of an election
func (r *Repository) CountAll(ctx context.Context, electionID uuid.UUID) ([]Row, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows := make([]Row, 0)
	err := r.db.SelectContext(ctx2, &rows, `
		SELECT c.id AS candidate_id, c.name, c.position, COUNT(v.id) AS count
		FROM candidates c
		LEFT JOIN votes v ON v.candidate_id = c.id
		WHERE c.election_id = $1
		GROUP BY c.id, c.name, c.position
		ORDER BY c.position, count DESC, c.name
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: count all", ErrInternal)
	}
	return rows, nil
}

type counterPair struct {
	CandidateID uuid.UUID `db:"candidate_id"`
	Position    string    `db:"position"`
	Cached      int64     `db:"cached"`
	Actual      int64     `db:"actual"`
}

// CachedVersusActual joins cached counters against the grouped ledger
func (r *Repository) CachedVersusActual(ctx context.Context, electionID uuid.UUID) ([]Mismatch, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pairs := make([]counterPair, 0)
	err := r.db.SelectContext(ctx2, &pairs, `
		SELECT c.id AS candidate_id, c.position, c.vote_count AS cached, COUNT(v.id) AS actual
		FROM candidates c
		LEFT JOIN votes v ON v.candidate_id = c.id
		WHERE c.election_id = $1
		GROUP BY c.id, c.position, c.vote_count
	`, electionID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: cached versus actual", ErrInternal)
	}

	mismatches := make([]Mismatch, 0)
	for _, p := range pairs {
		if p.Cached != p.Actual {
			mismatches = append(mismatches, Mismatch{
				CandidateID: p.CandidateID,
				Position:    p.Position,
				Cached:      p.Cached,
				Actual:      p.Actual,
			})
		}
	}
	return mismatches, len(pairs), nil
}

// RepairCounters resets every cached counter of the election to the grouped
// truth in one statement.
func (r *Repository) RepairCounters(ctx context.Context, electionID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx2, `
		UPDATE candidates c
		SET vote_count = truth.actual
		FROM (
			SELECT c2.id, COUNT(v.id) AS actual
			FROM candidates c2
			LEFT JOIN votes v ON v.candidate_id = c2.id
			WHERE c2.election_id = $1
			GROUP BY c2.id
		) AS truth
		WHERE c.id = truth.id AND c.vote_count <> truth.actual
	`, electionID)
	if err != nil {
		return 0, fmt.Errorf("%w: repair counters", ErrInternal)
	}

	repaired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return repaired, nil
}
