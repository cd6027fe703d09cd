package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voteflow/voteflow-api/internal/domain/ledger"
)

// Service bridges the gateway's at-least-once notification channel into
// exactly-once ledger effects. All the arbiters live in the database (the
// transaction_id primary key and the conditional pending->terminal update),
// so it is safe to invoke concurrently for the same transaction.
type Service struct {
	ledgerRepo *ledger.Repository
	repo       *Repository
}

func NewService(ledgerRepo *ledger.Repository, repo *Repository) *Service {
	return &Service{ledgerRepo: ledgerRepo, repo: repo}
}

// Initiate records a pending transaction for an organizer. The returned
// reference is handed to the gateway and echoed back by its notifications.
func (s *Service) Initiate(ctx context.Context, accountID uuid.UUID, phoneNumber string, amount int64) (*InitiateResponse, error) {
	if err := s.ledgerRepo.EnsureAccount(ctx, accountID); err != nil {
		return nil, err
	}

	transactionID := uuid.New().String()
	if err := s.ledgerRepo.RecordTransaction(ctx, accountID, transactionID, phoneNumber, amount); err != nil {
		return nil, err
	}

	log.Info().
		Str("account_id", accountID.String()).
		Str("transaction_id", transactionID).
		Int64("amount", amount).
		Msg("payment initiated")

	return &InitiateResponse{
		TransactionID: transactionID,
		Status:        string(ledger.StatusPending),
	}, nil
}

// HandleNotification processes one gateway delivery. Replays are absorbed:
// exactly one account credit results per transaction that ever reaches
// success, regardless of delivery count or ordering.
func (s *Service) HandleNotification(ctx context.Context, n Notification) error {
	outcome, err := parseOutcome(n.Status)
	if err != nil {
		return err
	}

	// Record if unseen. A duplicate here just means another delivery (or
	// the initiate call) won the insert; that's the expected path.
	if err := s.record(ctx, n); err != nil {
		return err
	}

	// A pending notification carries no settlement; recording was the work.
	if outcome == ledger.StatusPending {
		return nil
	}

	err = s.ledgerRepo.SettleTransaction(ctx, n.TransactionID, outcome)
	switch {
	case err == nil:
		log.Info().
			Str("transaction_id", n.TransactionID).
			Str("outcome", string(outcome)).
			Int64("amount", n.Amount).
			Msg("payment settled")
		return nil
	case errors.Is(err, ledger.ErrAlreadySettled):
		// Replay of a terminal notification; no-op by design of the ledger.
		log.Debug().
			Str("transaction_id", n.TransactionID).
			Msg("notification replay absorbed")
		return nil
	default:
		return err
	}
}

// record makes sure the transaction row exists before settlement, covering
// deliveries that arrive before (or instead of) the initiate call.
func (s *Service) record(ctx context.Context, n Notification) error {
	accountID, err := s.repo.AccountByPhone(ctx, n.PhoneNumber)
	if err != nil {
		if errors.Is(err, ErrUnresolvableAccount) {
			// The transaction may still have been recorded under a
			// different phone format; settlement will classify it.
			if _, getErr := s.ledgerRepo.GetTransaction(ctx, n.TransactionID); getErr == nil {
				return nil
			}
			return ErrUnresolvableAccount
		}
		return err
	}

	err = s.ledgerRepo.RecordTransaction(ctx, accountID, n.TransactionID, n.PhoneNumber, n.Amount)
	if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
		return err
	}
	return nil
}

func parseOutcome(status string) (ledger.TransactionStatus, error) {
	switch strings.ToLower(status) {
	case "success", "successful", "paid":
		return ledger.StatusSuccess, nil
	case "failed", "failure", "cancelled":
		return ledger.StatusFailed, nil
	case "pending":
		return ledger.StatusPending, nil
	default:
		return "", ErrInvalidNotification
	}
}
