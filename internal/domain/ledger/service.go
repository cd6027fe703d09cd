package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service exposes ledger reads used by the HTTP surface. Mutations go
// through the repository directly from the payment reconciler and the
// authorization gate, which own their transactional semantics.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreditSummary assembles every credit source the account holds
func (s *Service) CreditSummary(ctx context.Context, accountID uuid.UUID) (*CreditSummary, error) {
	balance, err := s.repo.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ActiveUnlimitedPackage(ctx, accountID, time.Now())
	if err != nil {
		return nil, err
	}

	legacy, err := s.repo.LegacyRemaining(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &CreditSummary{
		AccountID:       accountID,
		SharedBalance:   balance,
		ActiveUnlimited: active,
		LegacyRemaining: legacy,
	}, nil
}

// ListTransactions returns the account's payment history
func (s *Service) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, accountID, limit, offset)
}
