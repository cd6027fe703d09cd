package tally

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/election"
	"github.com/voteflow/voteflow-api/internal/middleware"
	"github.com/voteflow/voteflow-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Results handles GET /elections/{id}/results
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}
	position := r.URL.Query().Get("position")

	results, err := h.svc.Tally(r.Context(), electionID, position)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"election_id": electionID,
		"results":     results,
	})
}

// Reconciliation handles GET /elections/{id}/reconciliation
func (h *Handler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	report, err := h.svc.Reconcile(r.Context(), electionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, report)
}

// Repair handles POST /elections/{id}/reconciliation/repair
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	repaired, err := h.svc.Repair(r.Context(), accountID, electionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, map[string]int64{"repaired": repaired})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, election.ErrNotFound):
		response.NotFound(w, "election not found")
	case errors.Is(err, election.ErrNotOwner):
		response.Forbidden(w, "not the election organizer")
	default:
		log.Error().Err(err).Msg("tally request failed")
		response.InternalError(w)
	}
}
