package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/common"
	"github.com/dmitrijs2005/quotakeeper/internal/dbx"
	"github.com/dmitrijs2005/quotakeeper/internal/logging"
	"github.com/dmitrijs2005/quotakeeper/internal/server/catalog"
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/repomanager"
)

// referralCodeLen keeps codes short enough to type from a chat message.
const referralCodeLen = 10

var referralEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ReferralCodeFor derives an account's referral code deterministically from
// its id, so codes never need a generation step or a uniqueness retry loop.
func ReferralCodeFor(accountID string) string {
	sum := sha256.Sum256([]byte(accountID))
	return strings.ToLower(referralEncoding.EncodeToString(sum[:]))[:referralCodeLen]
}

// AccountService creates accounts on first contact and owns the referral
// ledger. Registration is an upsert keyed on the account id; the referral
// credit rides in the same transaction as the insert and is applied only when
// the insert actually created a row, so a retried creation can never credit
// the referrer twice.
type AccountService struct {
	db                *sql.DB
	repos             repomanager.RepositoryManager
	cat               *catalog.Catalog
	logger            logging.Logger
	trialMonths       int
	referralBonusDays int64
	now               func() time.Time
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cat *catalog.Catalog, logger logging.Logger, trialMonths int, referralBonusDays int64) *AccountService {
	return &AccountService{
		db:                db,
		repos:             m,
		cat:               cat,
		logger:            logger,
		trialMonths:       trialMonths,
		referralBonusDays: referralBonusDays,
		now:               time.Now,
	}
}

// Register creates the account for a first contact, granting the trial term
// and resolving an optional referral code. An unknown or self-referencing
// code is silently ignored. Returns the stored account and whether this call
// created it.
func (s *AccountService) Register(ctx context.Context, accountID string, referralCode string) (*models.Account, bool, error) {
	now := s.now()
	trialEnd := now.AddDate(0, s.trialMonths, 0)

	acc := &models.Account{
		ID:               accountID,
		TierID:           catalog.FreeTierID,
		TrialEnd:         &trialEnd,
		LastDailyReset:   dayKey(now),
		LastMonthlyReset: monthKey(now),
		ReferralCode:     ReferralCodeFor(accountID),
	}

	var created bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Accounts(tx)

		var referrerID string
		if referralCode != "" {
			referrer, err := repo.GetByReferralCode(ctx, referralCode)
			switch {
			case err == nil && referrer.ID != accountID:
				referrerID = referrer.ID
				acc.ReferredBy = &referrerID
			case err != nil && !errors.Is(err, common.ErrorNotFound):
				return err
			}
		}

		inserted, err := repo.Create(ctx, acc)
		if err != nil {
			return err
		}
		created = inserted

		if inserted && referrerID != "" {
			if err := repo.CreditReferrer(ctx, referrerID, s.referralBonusDays); err != nil {
				return err
			}
			if err := repo.CreditReferred(ctx, accountID, s.referralBonusDays); err != nil {
				return err
			}
			s.logger.Info(ctx, "referral credited",
				"referrer_id", referrerID, "referred_id", accountID, "bonus_days", s.referralBonusDays)
		}

		stored, err := repo.Get(ctx, accountID)
		if err != nil {
			return err
		}
		acc = stored
		return nil
	})
	if err != nil {
		return nil, false, storageErr(err)
	}
	return acc, created, nil
}

// Profile is the read surface the messaging front end renders from.
type Profile struct {
	Account *models.Account
	Tier    catalog.Tier
	Models  []string
}

// Profile returns the account together with its effective tier and the model
// set that tier unlocks.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*Profile, error) {
	acc, err := s.repos.Accounts(s.db).Get(ctx, accountID)
	if err != nil {
		return nil, storageErr(err)
	}

	tierID := effectiveTierID(acc, s.now())
	tier, ok := s.cat.Get(tierID)
	if !ok {
		s.logger.Error(ctx, "account references unconfigured tier", "account_id", accountID, "tier_id", tierID)
		return nil, common.ErrorUnknownTier
	}

	return &Profile{
		Account: acc,
		Tier:    tier,
		Models:  s.cat.ModelsFor(tierID),
	}, nil
}
