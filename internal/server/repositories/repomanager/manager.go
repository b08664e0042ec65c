package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkolesnikov/expensio/internal/dbx"
	"github.com/dkolesnikov/expensio/internal/server/repositories/expenses"
	"github.com/dkolesnikov/expensio/internal/server/repositories/users"
)

// RepoManager hands out repositories bound to a DBTX, so a service can run
// several repositories inside one transaction.
type RepoManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Expenses(db dbx.DBTX) expenses.Repository
}
