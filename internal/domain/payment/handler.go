package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/ledger"
	"github.com/voteflow/voteflow-api/internal/middleware"
	"github.com/voteflow/voteflow-api/internal/pkg/momo"
	"github.com/voteflow/voteflow-api/internal/pkg/response"
	"github.com/voteflow/voteflow-api/internal/pkg/validator"
)

const maxWebhookBody = 64 << 10

// Handler handles payment HTTP requests
type Handler struct {
	service       *Service
	ledgerSvc     *ledger.Service
	webhookSecret string
}

func NewHandler(service *Service, ledgerSvc *ledger.Service, webhookSecret string) *Handler {
	return &Handler{service: service, ledgerSvc: ledgerSvc, webhookSecret: webhookSecret}
}

// Webhook handles POST /webhooks/momo. The gateway retries until it sees a
// 2xx, so every absorbed duplicate must still be acknowledged; only
// malformed or badly signed payloads are rejected.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}

	signature := r.Header.Get("X-Momo-Signature")
	if !momo.VerifySignature(body, signature, h.webhookSecret) {
		log.Warn().Msg("momo webhook signature rejected")
		response.Unauthorized(w, "invalid signature")
		return
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(n); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	err = h.service.HandleNotification(r.Context(), n)
	switch {
	case err == nil:
		response.OK(w, map[string]string{"ack": n.TransactionID})
	case errors.Is(err, ErrUnresolvableAccount), errors.Is(err, ledger.ErrUnknownTransaction):
		// Fatal to this delivery but not to the gateway contract: log it,
		// acknowledge so the gateway stops retrying a hopeless payload.
		log.Warn().
			Str("transaction_id", n.TransactionID).
			Err(err).
			Msg("momo notification could not be applied")
		response.OK(w, map[string]string{"ack": n.TransactionID})
	case errors.Is(err, ErrInvalidNotification):
		response.BadRequest(w, "unrecognized status")
	default:
		log.Error().Err(err).Str("transaction_id", n.TransactionID).Msg("momo notification failed")
		response.InternalError(w)
	}
}

// Initiate handles POST /payments/initiate
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	out, err := h.service.Initiate(r.Context(), accountID, req.PhoneNumber, req.Amount)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID.String()).Msg("payment initiate failed")
		response.InternalError(w)
		return
	}

	response.Created(w, out)
}

// List handles GET /payments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.ledgerSvc.ListTransactions(r.Context(), accountID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("account_id", accountID.String()).Msg("list transactions failed")
		response.InternalError(w)
		return
	}

	response.OK(w, transactions)
}

// Routes returns organizer-facing payment routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/initiate", h.Initiate)
	r.Get("/", h.List)
	return r
}

// WebhookRoutes returns gateway callback routes (no JWT; HMAC-verified)
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/momo", h.Webhook)
	return r
}
