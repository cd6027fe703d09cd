package voting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// AddAllowedVoters registers voters on the election's roll. Already-present
// entries are skipped; returns how many were actually added.
func (r *Repository) AddAllowedVoters(ctx context.Context, electionID uuid.UUID, studentIDs []string) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		INSERT INTO allowed_voters (election_id, student_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (election_id, student_id) DO NOTHING
	`, electionID, pq.Array(studentIDs))
	if err != nil {
		return 0, fmt.Errorf("%w: add allowed voters", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected", ErrInternal)
	}
	return rows, nil
}

// IsAllowedVoter checks the roll
func (r *Repository) IsAllowedVoter(ctx context.Context, electionID uuid.UUID, studentID string) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var allowed bool
	err := r.db.GetContext(ctx2, &allowed, `
		SELECT EXISTS (SELECT 1 FROM allowed_voters WHERE election_id = $1 AND student_id = $2)
	`, electionID, studentID)
	if err != nil {
		return false, fmt.Errorf("%w: check allowed voter", ErrInternal)
	}
	return allowed, nil
}

// CreateCandidate registers a candidate for (election, position)
func (r *Repository) CreateCandidate(ctx context.Context, c *Candidate) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO candidates (id, election_id, position, name, vote_count)
		VALUES ($1, $2, $3, $4, 0)
	`, c.ID, c.ElectionID, c.Position, c.Name)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateCandidate
		}
		return fmt.Errorf("%w: create candidate", ErrInternal)
	}
	return nil
}

// GetCandidate fetches a candidate by ID
func (r *Repository) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c Candidate
	err := r.db.GetContext(ctx2, &c, `
		SELECT id, election_id, position, name, vote_count, created_at
		FROM candidates
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCandidate
		}
		return nil, fmt.Errorf("%w: get candidate", ErrInternal)
	}
	return &c, nil
}

// ListCandidates returns an election's candidates grouped by position order
func (r *Repository) ListCandidates(ctx context.Context, electionID uuid.UUID) ([]Candidate, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	candidates := make([]Candidate, 0)
	err := r.db.SelectContext(ctx2, &candidates, `
		SELECT id, election_id, position, name, vote_count, created_at
		FROM candidates
		WHERE election_id = $1
		ORDER BY position, name
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: list candidates", ErrInternal)
	}
	return candidates, nil
}

// InsertVote writes the ballot and bumps the candidate counter in one
// database transaction. The unique index on (election_id, voter_id,
// position) is the arbiter of duplication: a violation means another ballot
// won, the transaction rolls back and the counter is untouched. The counter
// bump is a monotonic in-place add, never a read-modify-write, so
// concurrent increments for the same candidate can't lose updates.
func (r *Repository) InsertVote(ctx context.Context, v *Vote) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx2, `
		INSERT INTO votes (id, election_id, voter_id, candidate_id, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, v.ElectionID, v.VoterID, v.CandidateID, v.Position, v.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrDuplicateVote
			case "40001", "40P01":
				return ErrBusy
			}
		}
		return fmt.Errorf("%w: insert vote", ErrInternal)
	}

	result, err := tx.ExecContext(ctx2, `
		UPDATE candidates SET vote_count = vote_count + 1 WHERE id = $1
	`, v.CandidateID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Code == "40001" || pqErr.Code == "40P01") {
			return ErrBusy
		}
		return fmt.Errorf("%w: increment candidate counter", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		// Candidate vanished between precondition check and the write;
		// rolling back also discards the vote insert.
		return ErrInvalidCandidate
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && (pqErr.Code == "40001" || pqErr.Code == "40P01") {
			return ErrBusy
		}
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}
