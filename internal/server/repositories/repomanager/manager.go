// Package repomanager vends repository implementations bound to a DBTX and
// owns schema migrations. Services hold a RepositoryManager plus a *sql.DB
// and rebind repositories to a transaction when a mutation spans several
// statements.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/quotakeeper/internal/dbx"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/fulfillments"
	"github.com/dmitrijs2005/quotakeeper/internal/server/repositories/payments"
)

// RepositoryManager creates repositories bound to the given handle, which is
// either the shared *sql.DB or an open transaction.
type RepositoryManager interface {
	Accounts(db dbx.DBTX) accounts.Repository
	Payments(db dbx.DBTX) payments.Repository
	Fulfillments(db dbx.DBTX) fulfillments.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
