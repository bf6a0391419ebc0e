package models

import "time"

// Fulfillment records a paid api-key purchase awaiting manual hand-over by an
// administrator. Succeeded api-key payments insert one of these instead of
// mutating entitlements.
type Fulfillment struct {
	ID        int64
	AccountID string
	ModelID   string
	PaymentID string
	Status    string
	CreatedAt time.Time
}

// FulfillmentCompleted is the only status written by the reconciler; the row
// itself is the signal for the admin workflow.
const FulfillmentCompleted = "completed"
