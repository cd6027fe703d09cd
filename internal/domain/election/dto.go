package election

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest creates a draft election
type CreateRequest struct {
	Title          string     `json:"title" validate:"required,min=3,max=200"`
	PlanType       string     `json:"plan_type" validate:"plan_type"`
	VoterLimit     int64      `json:"voter_limit" validate:"required,gt=0"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	EndsAt         *time.Time `json:"ends_at,omitempty"`
}

// ActivateResponse reports what the gate debited
type ActivateResponse struct {
	ElectionID    uuid.UUID `json:"election_id"`
	Status        Status    `json:"status"`
	Authorization `json:"authorization"`
}
