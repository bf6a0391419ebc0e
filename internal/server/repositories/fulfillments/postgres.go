package fulfillments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/quotakeeper/internal/dbx"
	"github.com/dmitrijs2005/quotakeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, accountID, modelID, paymentID string) error {
	query :=
		`INSERT INTO fulfillments (account_id, model_id, payment_id, status)
	     VALUES ($1, $2, $3, 'completed')`

	if _, err := r.db.ExecContext(ctx, query, accountID, modelID, paymentID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Fulfillment, error) {
	query :=
		`SELECT id, account_id, model_id, payment_id, status, created_at
	     FROM fulfillments
	     WHERE account_id = $1 AND status = 'completed'
	     ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Fulfillment
	for rows.Next() {
		f := &models.Fulfillment{}
		if err := rows.Scan(&f.ID, &f.AccountID, &f.ModelID, &f.PaymentID, &f.Status, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
