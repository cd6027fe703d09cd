package election

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents election lifecycle state
type Status string

const (
	StatusDraft  Status = "draft"
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Election is a unit of voting owned by one organizer account
type Election struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	OrganizerID    uuid.UUID      `db:"organizer_id" json:"organizer_id"`
	OrganizationID uuid.NullUUID  `db:"organization_id" json:"organization_id,omitempty"`
	Title          string         `db:"title" json:"title"`
	PlanType       string         `db:"plan_type" json:"plan_type"`
	VoterLimit     int64          `db:"voter_limit" json:"voter_limit"`
	Status         Status         `db:"status" json:"status"`
	CreditSource   sql.NullString `db:"credit_source" json:"credit_source,omitempty"`
	DebitedAmount  int64          `db:"debited_amount" json:"debited_amount"`
	StartsAt       sql.NullTime   `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt         sql.NullTime   `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// OpenAt reports whether votes may be cast at the given instant
func (e *Election) OpenAt(at time.Time) bool {
	if e.Status != StatusActive {
		return false
	}
	if e.StartsAt.Valid && at.Before(e.StartsAt.Time) {
		return false
	}
	if e.EndsAt.Valid && !at.Before(e.EndsAt.Time) {
		return false
	}
	return true
}

// Authorization records which credit source covered an activation and by
// how much, so a cancellation can reverse exactly what was taken.
type Authorization struct {
	Source string `json:"source"`
	Amount int64  `json:"amount"`
}
