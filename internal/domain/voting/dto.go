package voting

import "github.com/google/uuid"

// CastRequest is one ballot from the voter-facing surface
type CastRequest struct {
	VoterID     string    `json:"voter_id" validate:"required,min=1,max=100"`
	CandidateID uuid.UUID `json:"candidate_id" validate:"required"`
	Position    string    `json:"position" validate:"required,position"`
}

// RegisterCandidateRequest adds a candidate to an election position
type RegisterCandidateRequest struct {
	Position string `json:"position" validate:"required,position"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
}

// ImportVotersRequest bulk-loads the election's voter roll
type ImportVotersRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=10000,dive,required,min=1,max=100"`
}

// ImportVotersResponse reports how many new voters were added
type ImportVotersResponse struct {
	Added   int64 `json:"added"`
	Skipped int64 `json:"skipped"`
}
