package voting

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/election"
	"github.com/voteflow/voteflow-api/internal/middleware"
	"github.com/voteflow/voteflow-api/internal/pkg/response"
	"github.com/voteflow/voteflow-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Cast handles POST /elections/{id}/votes. Voter-facing: no organizer JWT,
// the roll check is the authorization.
func (h *Handler) Cast(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	var req CastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	receipt, err := h.svc.CastVote(r.Context(), electionID, req.VoterID, req.CandidateID, req.Position)
	if err != nil {
		h.writeCastError(w, err)
		return
	}

	response.Created(w, receipt)
}

// writeCastError maps the vote error taxonomy to HTTP. Expected rejections
// never log as errors.
func (h *Handler) writeCastError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, election.ErrNotFound):
		response.NotFound(w, "election not found")
	case errors.Is(err, ErrElectionNotOpen):
		response.Conflict(w, "ELECTION_NOT_OPEN", "election is not open for voting")
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, "voter not authorized for this election")
	case errors.Is(err, ErrInvalidCandidate):
		response.UnprocessableEntity(w, "INVALID_CANDIDATE", "candidate does not match election and position")
	case errors.Is(err, ErrDuplicateVote):
		response.Conflict(w, "DUPLICATE_VOTE", "already voted for this position")
	case errors.Is(err, ErrBusy):
		response.Busy(w, 1)
	default:
		log.Error().Err(err).Msg("cast vote failed")
		response.InternalError(w)
	}
}

// RegisterCandidate handles POST /elections/{id}/candidates
func (h *Handler) RegisterCandidate(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	var req RegisterCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	candidate, err := h.svc.RegisterCandidate(r.Context(), accountID, electionID, req.Position, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, election.ErrNotFound):
			response.NotFound(w, "election not found")
		case errors.Is(err, election.ErrNotOwner):
			response.Forbidden(w, "not the election organizer")
		case errors.Is(err, ErrElectionNotOpen):
			response.Conflict(w, "ELECTION_CLOSED", "election is closed")
		case errors.Is(err, ErrDuplicateCandidate):
			response.Conflict(w, "DUPLICATE_CANDIDATE", "candidate already registered for this position")
		default:
			log.Error().Err(err).Msg("register candidate failed")
			response.InternalError(w)
		}
		return
	}

	response.Created(w, candidate)
}

// ImportVoters handles POST /elections/{id}/voters
func (h *Handler) ImportVoters(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	var req ImportVotersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	added, err := h.svc.ImportVoters(r.Context(), accountID, electionID, req.StudentIDs)
	if err != nil {
		switch {
		case errors.Is(err, election.ErrNotFound):
			response.NotFound(w, "election not found")
		case errors.Is(err, election.ErrNotOwner):
			response.Forbidden(w, "not the election organizer")
		default:
			log.Error().Err(err).Msg("import voters failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ImportVotersResponse{
		Added:   added,
		Skipped: int64(len(req.StudentIDs)) - added,
	})
}

// ListCandidates handles GET /elections/{id}/candidates
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	candidates, err := h.svc.ListCandidates(r.Context(), electionID)
	if err != nil {
		log.Error().Err(err).Msg("list candidates failed")
		response.InternalError(w)
		return
	}

	response.OK(w, candidates)
}
