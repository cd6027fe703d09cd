package ledger

import "errors"

var (
	// ErrDuplicateTransaction is returned when a transaction_id was already recorded
	ErrDuplicateTransaction = errors.New("transaction already recorded")

	// ErrUnknownTransaction is returned when settling a transaction that was never recorded
	ErrUnknownTransaction = errors.New("unknown transaction")

	// ErrAlreadySettled is returned when a transaction already reached a terminal status
	ErrAlreadySettled = errors.New("transaction already settled")

	// ErrInsufficientCredit is returned when a debit would take a balance below zero
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrUnknownAccount is returned when the account doesn't exist
	ErrUnknownAccount = errors.New("unknown account")

	// ErrInvalidAmount is returned when amount is <= 0
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	ErrInternal = errors.New("internal ledger error")
)
