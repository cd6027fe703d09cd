package payment

import "errors"

var (
	// ErrInvalidNotification is returned for payloads that fail validation
	ErrInvalidNotification = errors.New("invalid notification payload")

	// ErrUnresolvableAccount is returned when a notification references a
	// transaction that was never initiated and no account can be inferred
	ErrUnresolvableAccount = errors.New("cannot resolve account for notification")
)
