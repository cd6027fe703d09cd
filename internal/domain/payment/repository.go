package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository provides payment-domain lookups that don't belong to the
// ledger's transactional core.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// AccountByPhone resolves the account that most recently paid from the given
// phone number. Used when a notification arrives for a transaction the
// service never initiated (organizer retried via USSD directly).
func (r *Repository) AccountByPhone(ctx context.Context, phoneNumber string) (uuid.UUID, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var accountID uuid.UUID
	err := r.db.GetContext(ctx2, &accountID, `
		SELECT account_id
		FROM payment_transactions
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, phoneNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrUnresolvableAccount
		}
		return uuid.Nil, fmt.Errorf("account by phone: %w", err)
	}

	return accountID, nil
}
