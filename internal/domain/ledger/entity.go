package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the settlement state of a payment transaction
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
)

// Terminal reports whether the status can no longer change
func (s TransactionStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Account identifies a paying organizer and its spendable credit
type Account struct {
	ID                  uuid.UUID    `db:"id" json:"id"`
	SharedCreditBalance int64        `db:"shared_credit_balance" json:"shared_credit_balance"`
	ArchivedAt          sql.NullTime `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
}

// UnlimitedPackage is a time-bounded credit source covering any voter limit
type UnlimitedPackage struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AccountID  uuid.UUID `db:"account_id" json:"account_id"`
	ValidFrom  time.Time `db:"valid_from" json:"valid_from"`
	ValidUntil time.Time `db:"valid_until" json:"valid_until"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the package is active at the given instant
func (p *UnlimitedPackage) Covers(at time.Time) bool {
	return !at.Before(p.ValidFrom) && at.Before(p.ValidUntil)
}

// LegacyGrant is a deprecated finite credit allocation predating the
// shared-balance model. Read-mostly; only remaining is ever mutated.
type LegacyGrant struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Remaining int64     `db:"remaining" json:"remaining"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Transaction is one external mobile-money payment attempt.
// TransactionID is assigned by the gateway and is the idempotency key.
type Transaction struct {
	TransactionID string            `db:"transaction_id" json:"transaction_id"`
	AccountID     uuid.UUID         `db:"account_id" json:"account_id"`
	PhoneNumber   string            `db:"phone_number" json:"phone_number"`
	Amount        int64             `db:"amount" json:"amount"`
	Status        TransactionStatus `db:"status" json:"status"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	SettledAt     sql.NullTime      `db:"settled_at" json:"settled_at,omitempty"`
}

// CreditSummary aggregates every credit source an account holds
type CreditSummary struct {
	AccountID       uuid.UUID         `json:"account_id"`
	SharedBalance   int64             `json:"shared_balance"`
	ActiveUnlimited *UnlimitedPackage `json:"active_unlimited,omitempty"`
	LegacyRemaining int64             `json:"legacy_remaining"`
}
