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
)

// storageErr keeps common.ErrorNotFound recognizable and folds everything
// else into ErrorStorageUnavailable, which enforcement callers treat as deny.
func storageErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
}

// UsageService decides allow/deny for each metered action and records
// consumption afterwards. Every check runs the window rollover and the limit
// comparison inside one transaction keyed by the account row, so two
// concurrent requests cannot both observe a stale window and reset it twice,
// and a reset can never bypass the comparison.
//
// Callers invoke CanConsume, run the guarded external call outside any
// transaction, then Record the actual consumption.
type UsageService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cat    *catalog.Catalog
	logger logging.Logger
	now    func() time.Time
}

func NewUsageService(db *sql.DB, m repomanager.RepositoryManager, cat *catalog.Catalog, logger logging.Logger) *UsageService {
	return &UsageService{db: db, repos: m, cat: cat, logger: logger, now: time.Now}
}

// effectiveTierID treats a paid tier whose term has lapsed as the free tier.
// The stored tier is left alone; only the payment reconciler writes tiers.
func effectiveTierID(a *models.Account, now time.Time) string {
	if a.TierID == catalog.FreeTierID {
		return a.TierID
	}
	if a.SubscriptionEnd == nil || a.SubscriptionEnd.Before(now) {
		return catalog.FreeTierID
	}
	return a.TierID
}

// CanConsume checks one daily dimension. A storage error means the caller
// must fail closed and deny the action.
func (s *UsageService) CanConsume(ctx context.Context, accountID string, dim models.Dimension) (Decision, error) {
	var d Decision
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Accounts(tx)
		now := s.now()

		if err := repo.ResetDailyIfStale(ctx, accountID, dayKey(now)); err != nil {
			return err
		}
		if err := repo.ResetMonthlyIfStale(ctx, accountID, monthKey(now)); err != nil {
			return err
		}

		acc, err := repo.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Blocked {
			d = deny(DenyBlocked)
			return nil
		}

		limits, ok := s.cat.LimitsFor(effectiveTierID(acc, now))
		if !ok {
			s.logger.Error(ctx, "account references unconfigured tier", "account_id", accountID, "tier_id", acc.TierID)
			d = deny(DenyUnknownTier)
			return nil
		}

		if acc.DailyCounter(dim) >= limits.Daily(dim) {
			d = deny(DenyDailyLimit)
			return nil
		}
		d = allow()
		return nil
	})
	if err != nil {
		return Decision{}, storageErr(err)
	}
	return d, nil
}

// Record adds one consumption to a daily dimension. Called only after the
// guarded downstream action actually succeeded.
func (s *UsageService) Record(ctx context.Context, accountID string, dim models.Dimension) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Accounts(tx)
		if err := repo.ResetDailyIfStale(ctx, accountID, dayKey(s.now())); err != nil {
			return err
		}
		return repo.IncrementDaily(ctx, accountID, dim)
	})
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// CanConsumeTokens checks a request's estimated token cost against the
// monthly budget, split 40% input / 60% output. Exceeding the total budget is
// the cost cap: it sets the block flag as a side effect of the same
// transaction, and the account stays denied until the next monthly rollover.
func (s *UsageService) CanConsumeTokens(ctx context.Context, accountID string, reqInput, reqOutput int64) (Decision, error) {
	var d Decision
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Accounts(tx)
		now := s.now()

		if err := repo.ResetMonthlyIfStale(ctx, accountID, monthKey(now)); err != nil {
			return err
		}

		acc, err := repo.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Blocked {
			d = deny(DenyBlocked)
			return nil
		}

		limits, ok := s.cat.LimitsFor(effectiveTierID(acc, now))
		if !ok {
			s.logger.Error(ctx, "account references unconfigured tier", "account_id", accountID, "tier_id", acc.TierID)
			d = deny(DenyUnknownTier)
			return nil
		}

		if acc.TokensTotal+reqInput+reqOutput > limits.MonthlyTokens {
			// Hard stop. The flag survives until the monthly rollover
			// clears it.
			if err := repo.SetBlocked(ctx, accountID, true); err != nil {
				return err
			}
			d = deny(DenyTokenBudget)
			return nil
		}
		if acc.TokensInput+reqInput > limits.MonthlyInputTokens() {
			d = deny(DenyInputBudget)
			return nil
		}
		if acc.TokensOutput+reqOutput > limits.MonthlyOutputTokens() {
			d = deny(DenyOutputBudget)
			return nil
		}
		d = allow()
		return nil
	})
	if err != nil {
		return Decision{}, storageErr(err)
	}
	return d, nil
}

// RecordTokens persists the token counts actually billed by the AI gateway.
// The pre-call estimate used by CanConsumeTokens is never written.
func (s *UsageService) RecordTokens(ctx context.Context, accountID string, input, output int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Accounts(tx)
		if err := repo.ResetMonthlyIfStale(ctx, accountID, monthKey(s.now())); err != nil {
			return err
		}
		return repo.AddTokens(ctx, accountID, input, output)
	})
	if err != nil {
		return storageErr(err)
	}
	return nil
}
