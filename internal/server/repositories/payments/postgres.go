package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, p *models.Payment) error {
	query :=
		`INSERT INTO payments (id, account_id, kind, tier_id, model_id, amount, status)
	     VALUES ($1, $2, $3, $4, $5, $6, 'pending')`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.AccountID, p.Kind, p.TierID, p.ModelID, p.Amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Payment, error) {
	query :=
		`SELECT id, account_id, kind, tier_id, model_id, amount, status, provider_ref, created_at
	     FROM payments WHERE id = $1`

	p := &models.Payment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.AccountID, &p.Kind, &p.TierID, &p.ModelID,
		&p.Amount, &p.Status, &p.ProviderRef, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) SetProviderRef(ctx context.Context, id string, providerRef string) error {
	query := `UPDATE payments SET provider_ref = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, providerRef); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FinishIfPending(ctx context.Context, id string, status models.PaymentStatus, providerRef *string) (bool, error) {
	query :=
		`UPDATE payments
	     SET status = $2, provider_ref = COALESCE($3, provider_ref)
	     WHERE id = $1 AND status = 'pending'`

	changed, err := dbx.ExecAffected(ctx, r.db, query, id, status, providerRef)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return changed, nil
}
