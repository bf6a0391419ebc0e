// Package payments persists payment rows and the compare-and-swap status
// transition that makes duplicate confirmations safe.
package payments

import (
	"context"

	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a pending payment with a caller-generated id.
	Create(ctx context.Context, payment *models.Payment) error

	// Get loads a payment. Returns common.ErrorNotFound for unknown ids.
	Get(ctx context.Context, id string) (*models.Payment, error)

	// SetProviderRef stores the provider-side payment id once assigned.
	SetProviderRef(ctx context.Context, id string, providerRef string) error

	// FinishIfPending transitions pending -> status with a single
	// conditional write and reports whether this call won the transition.
	// A false result means the row was already terminal.
	FinishIfPending(ctx context.Context, id string, status models.PaymentStatus, providerRef *string) (bool, error)
}
