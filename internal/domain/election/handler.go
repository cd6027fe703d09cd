package election

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

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

// Create handles POST /elections
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		response.BadRequest(w, "ends_at must be after starts_at")
		return
	}

	e, err := h.svc.Create(r.Context(), accountID, req)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID.String()).Msg("create election failed")
		response.InternalError(w)
		return
	}

	response.Created(w, e)
}

// Get handles GET /elections/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	e, err := h.svc.Get(r.Context(), accountID, electionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, e)
}

// List handles GET /elections
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	elections, err := h.svc.List(r.Context(), accountID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("list elections failed")
		response.InternalError(w)
		return
	}

	response.OK(w, elections)
}

// Activate handles POST /elections/{id}/activate
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	auth, err := h.svc.Activate(r.Context(), accountID, electionID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, ActivateResponse{
		ElectionID:    electionID,
		Status:        StatusActive,
		Authorization: *auth,
	})
}

// Cancel handles POST /elections/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	electionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid election id")
		return
	}

	if err := h.svc.Cancel(r.Context(), accountID, electionID); err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": string(StatusClosed)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "election not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, "not the election organizer")
	case errors.Is(err, ErrNotDraft):
		response.Conflict(w, "NOT_DRAFT", "election is not in draft")
	case errors.Is(err, ErrNotActive):
		response.Conflict(w, "NOT_ACTIVE", "election is not active")
	case errors.Is(err, ErrHasVotes):
		response.Conflict(w, "HAS_VOTES", "election already has votes")
	case errors.Is(err, ErrInsufficientCredit):
		response.Conflict(w, "INSUFFICIENT_CREDIT", "insufficient credit for voter limit")
	default:
		log.Error().Err(err).Msg("election request failed")
		response.InternalError(w)
	}
}
