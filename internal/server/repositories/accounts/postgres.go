package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/common"
	"github.com/dmitrijs2005/quotakeeper/internal/dbx"
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, tier_id, subscription_end, trial_end,
	 messages, images_generated, images_sent, videos_sent, last_daily_reset,
	 tokens_total, tokens_input, tokens_output, last_monthly_reset,
	 blocked, referral_code, referred_by, referral_count, referral_bonus_days, created_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.TierID, &a.SubscriptionEnd, &a.TrialEnd,
		&a.Messages, &a.ImagesGenerated, &a.ImagesSent, &a.VideosSent, &a.LastDailyReset,
		&a.TokensTotal, &a.TokensInput, &a.TokensOutput, &a.LastMonthlyReset,
		&a.Blocked, &a.ReferralCode, &a.ReferredBy, &a.ReferralCount, &a.ReferralBonusDays, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE referral_code = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, code))
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (bool, error) {
	query :=
		`INSERT INTO accounts
	     (id, tier_id, trial_end, last_daily_reset, last_monthly_reset, referral_code, referred_by)
	     VALUES ($1, $2, $3, $4, $5, $6, $7)
	     ON CONFLICT (id) DO NOTHING`

	inserted, err := dbx.ExecAffected(ctx, r.db, query,
		account.ID, account.TierID, account.TrialEnd,
		account.LastDailyReset, account.LastMonthlyReset,
		account.ReferralCode, account.ReferredBy)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return inserted, nil
}

func (r *PostgresRepository) ResetDailyIfStale(ctx context.Context, id string, dayKey string) error {
	query :=
		`UPDATE accounts
	     SET messages = 0, images_generated = 0, images_sent = 0, videos_sent = 0,
	         last_daily_reset = $2
	     WHERE id = $1 AND last_daily_reset <> $2`

	if _, err := r.db.ExecContext(ctx, query, id, dayKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ResetMonthlyIfStale(ctx context.Context, id string, monthKey string) error {
	query :=
		`UPDATE accounts
	     SET tokens_total = 0, tokens_input = 0, tokens_output = 0,
	         blocked = FALSE, last_monthly_reset = $2
	     WHERE id = $1 AND last_monthly_reset <> $2`

	if _, err := r.db.ExecContext(ctx, query, id, monthKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// dailyColumns maps dimensions onto counter columns. The map doubles as a
// whitelist: the column name is interpolated into SQL.
var dailyColumns = map[models.Dimension]string{
	models.DimensionMessage:       "messages",
	models.DimensionImageGenerate: "images_generated",
	models.DimensionImageSend:     "images_sent",
	models.DimensionVideoSend:     "videos_sent",
}

func (r *PostgresRepository) IncrementDaily(ctx context.Context, id string, dim models.Dimension) error {
	col, ok := dailyColumns[dim]
	if !ok {
		return fmt.Errorf("unknown dimension %q", dim)
	}

	query := fmt.Sprintf(`UPDATE accounts SET %s = %s + 1 WHERE id = $1`, col, col)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) AddTokens(ctx context.Context, id string, input, output int64) error {
	query :=
		`UPDATE accounts
	     SET tokens_input = tokens_input + $2,
	         tokens_output = tokens_output + $3,
	         tokens_total = tokens_total + $2 + $3
	     WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, input, output); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetBlocked(ctx context.Context, id string, blocked bool) error {
	query := `UPDATE accounts SET blocked = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, blocked); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GrantSubscription(ctx context.Context, id string, tierID string, until time.Time) error {
	query := `UPDATE accounts SET tier_id = $2, subscription_end = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, tierID, until); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreditReferrer(ctx context.Context, id string, bonusDays int64) error {
	query :=
		`UPDATE accounts
	     SET referral_count = referral_count + 1,
	         referral_bonus_days = referral_bonus_days + $2,
	         trial_end = COALESCE(trial_end, now()) + make_interval(days => $2::int)
	     WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, bonusDays); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreditReferred(ctx context.Context, id string, bonusDays int64) error {
	query :=
		`UPDATE accounts
	     SET referral_bonus_days = referral_bonus_days + $2,
	         trial_end = COALESCE(trial_end, now()) + make_interval(days => $2::int)
	     WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, bonusDays); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
