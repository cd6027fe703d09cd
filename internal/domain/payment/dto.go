package payment

// Notification is the payload the mobile-money gateway delivers to the
// webhook. Delivery is at-least-once: duplicates, reordering and very late
// redelivery all happen and must collapse into one ledger effect.
type Notification struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	PhoneNumber   string `json:"phone_number" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Status        string `json:"status" validate:"required,payment_status"`
}

// InitiateRequest starts a payment from the organizer surface
type InitiateRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
}

// InitiateResponse returns the reference the gateway will echo back
type InitiateResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}
