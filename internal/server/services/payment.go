package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/common"
	"github.com/dmitrijs2005/quotakeeper/internal/dbx"
	"github.com/dmitrijs2005/quotakeeper/internal/logging"
	"github.com/dmitrijs2005/quotakeeper/internal/server/catalog"
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Provider status vocabulary (YooKassa). Only succeeded and canceled are
// terminal; the rest leave the payment pending.
const (
	ProviderStatusPending   = "pending"
	ProviderStatusWaiting   = "waiting_for_capture"
	ProviderStatusSucceeded = "succeeded"
	ProviderStatusCanceled  = "canceled"
)

// PaymentService creates payments and reconciles confirmations arriving from
// the user-initiated poll and the provider's asynchronous push. Both paths
// funnel into Reconcile, which is safe to call any number of times and in any
// order: the terminal transition is one conditional write, and only the call
// that wins it applies side effects.
type PaymentService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	cat          *catalog.Catalog
	logger       logging.Logger
	planTermDays int
	now          func() time.Time
}

func NewPaymentService(db *sql.DB, m repomanager.RepositoryManager, cat *catalog.Catalog, logger logging.Logger, planTermDays int) *PaymentService {
	return &PaymentService{db: db, repos: m, cat: cat, logger: logger, planTermDays: planTermDays, now: time.Now}
}

// CreateSubscription opens a pending subscription payment for the given tier.
func (s *PaymentService) CreateSubscription(ctx context.Context, accountID, tierID string) (*models.Payment, error) {
	tier, ok := s.cat.Get(tierID)
	if !ok {
		return nil, common.ErrorUnknownTier
	}

	p := &models.Payment{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      models.PaymentKindSubscription,
		TierID:    tierID,
		Amount:    tier.Price,
		Status:    models.PaymentPending,
	}
	if err := s.repos.Payments(s.db).Create(ctx, p); err != nil {
		return nil, storageErr(err)
	}
	return p, nil
}

// CreateAPIKeyPurchase opens a pending api-key payment for the given model.
func (s *PaymentService) CreateAPIKeyPurchase(ctx context.Context, accountID, modelID string) (*models.Payment, error) {
	price, ok := s.cat.APIKeyPrice(modelID)
	if !ok {
		return nil, fmt.Errorf("no api key price for model %q: %w", modelID, common.ErrorNotFound)
	}

	p := &models.Payment{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      models.PaymentKindAPIKey,
		ModelID:   modelID,
		Amount:    price,
		Status:    models.PaymentPending,
	}
	if err := s.repos.Payments(s.db).Create(ctx, p); err != nil {
		return nil, storageErr(err)
	}
	return p, nil
}

// AttachProviderRef stores the provider-side payment id once the provider
// assigns one.
func (s *PaymentService) AttachProviderRef(ctx context.Context, paymentID, providerRef string) error {
	if err := s.repos.Payments(s.db).SetProviderRef(ctx, paymentID, providerRef); err != nil {
		return storageErr(err)
	}
	return nil
}

// terminalStatus maps a provider status onto our state machine. ok is false
// for non-terminal provider statuses, which make Reconcile a read-only no-op.
func terminalStatus(providerStatus string) (models.PaymentStatus, bool) {
	switch providerStatus {
	case ProviderStatusSucceeded:
		return models.PaymentSucceeded, true
	case ProviderStatusCanceled:
		return models.PaymentFailed, true
	default:
		return "", false
	}
}

// Reconcile applies a payment-status report. The whole operation runs in one
// transaction: look up, conditional terminal transition, and (only when this
// call actually changed the row) the entitlement side effects. Duplicate and
// racing confirmations lose the conditional write and return the current
// terminal state without touching anything.
func (s *PaymentService) Reconcile(ctx context.Context, paymentID, providerStatus, providerRef string) (models.PaymentStatus, error) {
	var result models.PaymentStatus

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Payments(tx)

		p, err := repo.Get(ctx, paymentID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnknownPayment
			}
			return err
		}

		// Already terminal: benign no-op, report the settled state.
		if p.Status.Terminal() {
			result = p.Status
			return nil
		}

		target, ok := terminalStatus(providerStatus)
		if !ok {
			result = p.Status
			return nil
		}

		var ref *string
		if providerRef != "" {
			ref = &providerRef
		}
		won, err := repo.FinishIfPending(ctx, paymentID, target, ref)
		if err != nil {
			return err
		}
		if !won {
			// Lost the race to a concurrent confirmation.
			current, err := repo.Get(ctx, paymentID)
			if err != nil {
				return err
			}
			result = current.Status
			return nil
		}
		result = target

		if target != models.PaymentSucceeded {
			return nil
		}

		switch p.Kind {
		case models.PaymentKindSubscription:
			until := s.now().AddDate(0, 0, s.planTermDays)
			if err := s.repos.Accounts(tx).GrantSubscription(ctx, p.AccountID, p.TierID, until); err != nil {
				return err
			}
			s.logger.Info(ctx, "subscription granted",
				"account_id", p.AccountID, "tier_id", p.TierID, "until", until)
		case models.PaymentKindAPIKey:
			if err := s.repos.Fulfillments(tx).Create(ctx, p.AccountID, p.ModelID, paymentID); err != nil {
				return err
			}
			s.logger.Info(ctx, "api key purchase recorded for manual fulfillment",
				"account_id", p.AccountID, "model_id", p.ModelID, "payment_id", paymentID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnknownPayment) {
			return "", err
		}
		return "", storageErr(err)
	}
	return result, nil
}
