package models

import "time"

// PaymentKind tells what a succeeded payment entitles the buyer to.
type PaymentKind string

const (
	// PaymentKindSubscription grants a tier for the plan term.
	PaymentKindSubscription PaymentKind = "subscription"
	// PaymentKindAPIKey records an api-key purchase for manual fulfillment.
	PaymentKindAPIKey PaymentKind = "api_key"
)

// PaymentStatus is the payment state machine:
// pending -> succeeded | failed, both terminal.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further status writes are accepted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentSucceeded || s == PaymentFailed
}

// Payment is one purchase attempt. The id is caller-generated so both
// confirmation paths (user poll and provider push) address the same row.
// ProviderRef is the payment id on the provider side, nil until assigned.
type Payment struct {
	ID          string
	AccountID   string
	Kind        PaymentKind
	TierID      string // set for subscription payments
	ModelID     string // set for api-key payments
	Amount      int64
	Status      PaymentStatus
	ProviderRef *string
	CreatedAt   time.Time
}
