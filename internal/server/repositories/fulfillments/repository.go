// Package fulfillments records paid api-key purchases for manual hand-over.
package fulfillments

import (
	"context"

	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a completed fulfillment row for a succeeded payment.
	Create(ctx context.Context, accountID, modelID, paymentID string) error

	// ListByAccount returns an account's completed api-key purchases.
	ListByAccount(ctx context.Context, accountID string) ([]*models.Fulfillment, error)
}
