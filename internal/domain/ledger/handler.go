package ledger

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/middleware"
	"github.com/voteflow/voteflow-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Balance handles GET /credits/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	summary, err := h.svc.CreditSummary(r.Context(), accountID)
	if err != nil {
		if err == ErrUnknownAccount {
			response.NotFound(w, "account not found")
			return
		}
		log.Error().Err(err).Str("account_id", accountID.String()).Msg("credit summary failed")
		response.InternalError(w)
		return
	}

	response.OK(w, summary)
}

// Routes returns the credit router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	return r
}
