package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, e *Election) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO elections (id, organizer_id, organization_id, title, plan_type, voter_limit, status, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft', $7, $8)
	`, e.ID, e.OrganizerID, e.OrganizationID, e.Title, e.PlanType, e.VoterLimit, e.StartsAt, e.EndsAt)
	if err != nil {
		return fmt.Errorf("%w: create election", ErrInternal)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Election, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var e Election
	err := r.db.GetContext(ctx2, &e, `
		SELECT id, organizer_id, organization_id, title, plan_type, voter_limit, status,
		       credit_source, debited_amount, starts_at, ends_at, created_at
		FROM elections
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get election", ErrInternal)
	}
	return &e, nil
}

func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]Election, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	elections := make([]Election, 0)
	err := r.db.SelectContext(ctx2, &elections, `
		SELECT id, organizer_id, organization_id, title, plan_type, voter_limit, status,
		       credit_source, debited_amount, starts_at, ends_at, created_at
		FROM elections
		WHERE organizer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, organizerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list elections", ErrInternal)
	}
	return elections, nil
}

// MarkActive flips draft->active and records what the gate debited. The
// conditional status check makes concurrent activations of the same
// election lose cleanly instead of double-debiting.
func (r *Repository) MarkActive(ctx context.Context, id uuid.UUID, auth Authorization) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE elections
		SET status = 'active', credit_source = $2, debited_amount = $3
		WHERE id = $1 AND status = 'draft'
	`, id, auth.Source, auth.Amount)
	if err != nil {
		return fmt.Errorf("%w: mark active", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotDraft
	}
	return nil
}

// MarkClosed flips active->closed
func (r *Repository) MarkClosed(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE elections SET status = 'closed' WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return fmt.Errorf("%w: mark closed", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotActive
	}
	return nil
}

// HasVotes reports whether any ballot exists for the election
func (r *Repository) HasVotes(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx2, &exists, `
		SELECT EXISTS (SELECT 1 FROM votes WHERE election_id = $1)
	`, id)
	if err != nil {
		return false, fmt.Errorf("%w: has votes", ErrInternal)
	}
	return exists, nil
}

// CloseExpired closes every active election whose end time has passed and
// returns the closed rows for archiving.
func (r *Repository) CloseExpired(ctx context.Context, now time.Time) ([]Election, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	closed := make([]Election, 0)
	err := r.db.SelectContext(ctx2, &closed, `
		UPDATE elections
		SET status = 'closed'
		WHERE status = 'active' AND ends_at IS NOT NULL AND ends_at <= $1
		RETURNING id, organizer_id, organization_id, title, plan_type, voter_limit, status,
		          credit_source, debited_amount, starts_at, ends_at, created_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("%w: close expired", ErrInternal)
	}
	return closed, nil
}

// ListClosedSince returns elections closed with an end time in the window,
// used by the nightly reconciliation sweep.
func (r *Repository) ListClosedSince(ctx context.Context, since time.Time) ([]Election, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	elections := make([]Election, 0)
	err := r.db.SelectContext(ctx2, &elections, `
		SELECT id, organizer_id, organization_id, title, plan_type, voter_limit, status,
		       credit_source, debited_amount, starts_at, ends_at, created_at
		FROM elections
		WHERE status = 'closed' AND ends_at >= $1
		ORDER BY ends_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("%w: list closed", ErrInternal)
	}
	return elections, nil
}
