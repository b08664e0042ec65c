// Package repomanager wires the PostgreSQL repositories and migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkolesnikov/expensio/internal/dbx"
	"github.com/dkolesnikov/expensio/internal/server/migrations"
	"github.com/dkolesnikov/expensio/internal/server/repositories/expenses"
	"github.com/dkolesnikov/expensio/internal/server/repositories/users"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresRepoManager struct{}

func NewPostgresRepoManager() *PostgresRepoManager {
	return &PostgresRepoManager{}
}

// Open opens a database/sql handle over the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening db: %w", err)
	}
	return db, nil
}

func (m *PostgresRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("error setting dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}

	return nil
}

func (m *PostgresRepoManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepoManager) Expenses(db dbx.DBTX) expenses.Repository {
	return expenses.NewPostgresRepository(db)
}
