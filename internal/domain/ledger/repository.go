package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// Repository provides durable storage and atomic mutation of account
// balances and payment transactions.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EnsureAccount creates the account row if it doesn't exist yet
func (r *Repository) EnsureAccount(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, shared_credit_balance)
		VALUES ($1, 0)
		ON CONFLICT (id) DO NOTHING
	`, accountID)
	if err != nil {
		return fmt.Errorf("%w: ensure account", ErrInternal)
	}
	return nil
}

// RecordTransaction inserts a pending payment transaction. The primary key
// on transaction_id makes concurrent duplicate recording safe: exactly one
// insert wins, the rest get ErrDuplicateTransaction.
func (r *Repository) RecordTransaction(ctx context.Context, accountID uuid.UUID, transactionID, phoneNumber string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO payment_transactions (transaction_id, account_id, phone_number, amount, status)
		VALUES ($1, $2, $3, $4, 'pending')
	`, transactionID, accountID, phoneNumber, amount)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("%w: record transaction", ErrInternal)
	}

	return nil
}

// SettleTransaction transitions a pending transaction to a terminal status.
// The first transition to success credits the owning account in the same
// database transaction; both writes commit or neither does. The conditional
// UPDATE on status='pending' is the arbiter under concurrent settlement:
// only one caller observes an affected row.
func (r *Repository) SettleTransaction(ctx context.Context, transactionID string, outcome TransactionStatus) error {
	if !outcome.Terminal() {
		return fmt.Errorf("%w: settle outcome must be terminal", ErrInternal)
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var accountID uuid.UUID
	var amount int64
	err = tx.QueryRowContext(ctx2, `
		UPDATE payment_transactions
		SET status = $2, settled_at = NOW()
		WHERE transaction_id = $1 AND status = 'pending'
		RETURNING account_id, amount
	`, transactionID, string(outcome)).Scan(&accountID, &amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifySettleMiss(ctx2, transactionID)
		}
		return fmt.Errorf("%w: settle transaction", ErrInternal)
	}

	if outcome == StatusSuccess {
		if _, err := tx.ExecContext(ctx2, `
			UPDATE accounts
			SET shared_credit_balance = shared_credit_balance + $2
			WHERE id = $1
		`, accountID, amount); err != nil {
			return fmt.Errorf("%w: credit account", ErrInternal)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// classifySettleMiss distinguishes a replayed settlement from a settlement
// of a transaction that was never recorded.
func (r *Repository) classifySettleMiss(ctx context.Context, transactionID string) error {
	var status string
	err := r.db.GetContext(ctx, &status, `
		SELECT status FROM payment_transactions WHERE transaction_id = $1
	`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownTransaction
		}
		return fmt.Errorf("%w: classify settle miss", ErrInternal)
	}
	return ErrAlreadySettled
}

// DebitBalance atomically decrements the shared credit balance. The
// compare-and-decrement form never lets the balance go negative, even when
// two elections are authorized concurrently against the same account.
func (r *Repository) DebitBalance(ctx context.Context, accountID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var newBalance int64
	err := r.db.QueryRowContext(ctx2, `
		UPDATE accounts
		SET shared_credit_balance = shared_credit_balance - $2
		WHERE id = $1 AND shared_credit_balance >= $2
		RETURNING shared_credit_balance
	`, accountID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, r.classifyDebitMiss(ctx2, accountID)
		}
		return 0, fmt.Errorf("%w: debit balance", ErrInternal)
	}

	return newBalance, nil
}

func (r *Repository) classifyDebitMiss(ctx context.Context, accountID uuid.UUID) error {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)
	`, accountID)
	if err != nil {
		return fmt.Errorf("%w: classify debit miss", ErrInternal)
	}
	if !exists {
		return ErrUnknownAccount
	}
	return ErrInsufficientCredit
}

// CreditBalance adds credit back to the shared balance (compensating action
// when an authorized election is cancelled before any vote is cast).
func (r *Repository) CreditBalance(ctx context.Context, accountID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE accounts
		SET shared_credit_balance = shared_credit_balance + $2
		WHERE id = $1
	`, accountID, amount)
	if err != nil {
		return fmt.Errorf("%w: credit balance", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrUnknownAccount
	}

	return nil
}

// DebitLegacyGrants consumes legacy grants oldest-first, splitting across
// multiple grants when needed. All-or-nothing: if the grants cannot cover
// the full amount nothing is consumed.
func (r *Repository) DebitLegacyGrants(ctx context.Context, accountID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var grants []LegacyGrant
	if err := tx.SelectContext(ctx2, &grants, `
		SELECT id, account_id, amount, remaining, created_at
		FROM legacy_credit_grants
		WHERE account_id = $1 AND remaining > 0
		ORDER BY created_at ASC
		FOR UPDATE
	`, accountID); err != nil {
		return fmt.Errorf("%w: lock grants", ErrInternal)
	}

	var available int64
	for _, g := range grants {
		available += g.Remaining
	}
	if available < amount {
		return ErrInsufficientCredit
	}

	left := amount
	for _, g := range grants {
		if left == 0 {
			break
		}
		take := g.Remaining
		if take > left {
			take = left
		}
		if _, err := tx.ExecContext(ctx2, `
			UPDATE legacy_credit_grants SET remaining = remaining - $2 WHERE id = $1
		`, g.ID, take); err != nil {
			return fmt.Errorf("%w: debit grant", ErrInternal)
		}
		left -= take
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// RestoreLegacyGrants returns previously consumed legacy credit. Headroom is
// refilled newest-first, mirroring the oldest-first consumption order.
func (r *Repository) RestoreLegacyGrants(ctx context.Context, accountID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	var grants []LegacyGrant
	if err := tx.SelectContext(ctx2, &grants, `
		SELECT id, account_id, amount, remaining, created_at
		FROM legacy_credit_grants
		WHERE account_id = $1 AND remaining < amount
		ORDER BY created_at DESC
		FOR UPDATE
	`, accountID); err != nil {
		return fmt.Errorf("%w: lock grants", ErrInternal)
	}

	left := amount
	for _, g := range grants {
		if left == 0 {
			break
		}
		headroom := g.Amount - g.Remaining
		give := headroom
		if give > left {
			give = left
		}
		if _, err := tx.ExecContext(ctx2, `
			UPDATE legacy_credit_grants SET remaining = remaining + $2 WHERE id = $1
		`, g.ID, give); err != nil {
			return fmt.Errorf("%w: restore grant", ErrInternal)
		}
		left -= give
	}
	if left > 0 {
		// More credit released than was ever consumed; refuse rather than
		// inflate a grant beyond its original amount.
		return fmt.Errorf("%w: restore exceeds consumed legacy credit", ErrInternal)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

// ActiveUnlimitedPackage returns a package covering the given instant, or
// nil when none does.
func (r *Repository) ActiveUnlimitedPackage(ctx context.Context, accountID uuid.UUID, at time.Time) (*UnlimitedPackage, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p UnlimitedPackage
	err := r.db.GetContext(ctx2, &p, `
		SELECT id, account_id, valid_from, valid_until, created_at
		FROM unlimited_packages
		WHERE account_id = $1 AND valid_from <= $2 AND valid_until > $2
		ORDER BY valid_until DESC
		LIMIT 1
	`, accountID, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get unlimited package", ErrInternal)
	}

	return &p, nil
}

// GetBalance returns the current shared credit balance
func (r *Repository) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int64
	err := r.db.GetContext(ctx2, &balance, `
		SELECT shared_credit_balance FROM accounts WHERE id = $1
	`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUnknownAccount
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}

	return balance, nil
}

// LegacyRemaining returns the total unconsumed legacy credit
func (r *Repository) LegacyRemaining(ctx context.Context, accountID uuid.UUID) (int64, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var remaining int64
	err := r.db.GetContext(ctx2, &remaining, `
		SELECT COALESCE(SUM(remaining), 0) FROM legacy_credit_grants WHERE account_id = $1
	`, accountID)
	if err != nil {
		return 0, fmt.Errorf("%w: sum legacy grants", ErrInternal)
	}

	return remaining, nil
}

// GetTransaction fetches a transaction by its idempotency key
func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx2, &t, `
		SELECT transaction_id, account_id, phone_number, amount, status, created_at, settled_at
		FROM payment_transactions
		WHERE transaction_id = $1
	`, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownTransaction
		}
		return nil, fmt.Errorf("%w: get transaction", ErrInternal)
	}

	return &t, nil
}

// ListTransactions returns an account's transactions, newest first
func (r *Repository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT transaction_id, account_id, phone_number, amount, status, created_at, settled_at
		FROM payment_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

// CreateUnlimitedPackage records a purchased unlimited window
func (r *Repository) CreateUnlimitedPackage(ctx context.Context, accountID uuid.UUID, from, until time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO unlimited_packages (id, account_id, valid_from, valid_until)
		VALUES ($1, $2, $3, $4)
	`, id, accountID, from, until)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: create unlimited package", ErrInternal)
	}
	return id, nil
}

// CreateLegacyGrant records a legacy credit allocation (operational tooling;
// no new grants are issued through the product)
func (r *Repository) CreateLegacyGrant(ctx context.Context, accountID uuid.UUID, amount int64, createdAt time.Time) (uuid.UUID, error) {
	if amount <= 0 {
		return uuid.Nil, ErrInvalidAmount
	}
	id := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO legacy_credit_grants (id, account_id, amount, remaining, created_at)
		VALUES ($1, $2, $3, $3, $4)
	`, id, accountID, amount, createdAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: create legacy grant", ErrInternal)
	}
	return id, nil
}
