// Package accounts persists the per-user entitlement record. Every mutation
// is expressed as a single conditional statement so concurrent handlers for
// the same account never need a process-level lock.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

// Repository is the storage surface the services layer depends on.
type Repository interface {
	// Get loads an account. Returns common.ErrorNotFound for unknown ids.
	Get(ctx context.Context, id string) (*models.Account, error)

	// GetByReferralCode resolves a referral code to its owner.
	GetByReferralCode(ctx context.Context, code string) (*models.Account, error)

	// Create inserts the account if no row with its id exists yet and
	// reports whether a row was inserted. A retried creation is a no-op
	// with inserted == false.
	Create(ctx context.Context, account *models.Account) (bool, error)

	// ResetDailyIfStale zeroes the daily counters and writes the new day
	// key, but only when the stored key differs. Resetting twice is a no-op.
	ResetDailyIfStale(ctx context.Context, id string, dayKey string) error

	// ResetMonthlyIfStale zeroes the monthly token counters, clears the
	// blocked flag, and writes the new month key when the stored key
	// differs.
	ResetMonthlyIfStale(ctx context.Context, id string, monthKey string) error

	// IncrementDaily adds one to the counter of the given dimension.
	IncrementDaily(ctx context.Context, id string, dim models.Dimension) error

	// AddTokens adds actually consumed tokens to all three monthly counters.
	AddTokens(ctx context.Context, id string, input, output int64) error

	// SetBlocked sets the cost-cap block flag.
	SetBlocked(ctx context.Context, id string, blocked bool) error

	// GrantSubscription sets the tier and subscription expiry.
	GrantSubscription(ctx context.Context, id string, tierID string, until time.Time) error

	// CreditReferrer bumps the referrer's counters and extends their trial.
	CreditReferrer(ctx context.Context, id string, bonusDays int64) error

	// CreditReferred applies the symmetric bonus to the new account.
	CreditReferred(ctx context.Context, id string, bonusDays int64) error
}
