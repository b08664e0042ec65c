// Package expenses provides the PostgreSQL-backed expense record repository.
package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/dkolesnikov/expensio/internal/dbx"
	"github.com/dkolesnikov/expensio/internal/server/models"
)

const selectColumns = "id, user_id, amount, description, category, receipt_key, created_at"

// PostgresRepository implements expense storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, expense *models.Expense) (*models.Expense, error) {
	query := `
		INSERT INTO expenses (user_id, amount, description, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		expense.UserID, expense.Amount, expense.Description, expense.Category).
		Scan(&expense.ID, &expense.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return expense, nil
}

func (r *PostgresRepository) GetByIDAndUser(ctx context.Context, id string, userID string) (*models.Expense, error) {
	query := `
		SELECT ` + selectColumns + ` FROM expenses
		WHERE id = $1 AND user_id = $2
	`

	expense := &models.Expense{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&expense.ID, &expense.UserID, &expense.Amount, &expense.Description,
		&expense.Category, &expense.ReceiptKey, &expense.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return expense, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	query := `
		SELECT ` + selectColumns + ` FROM expenses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListByUserAndCategory(ctx context.Context, userID string, category string) ([]*models.Expense, error) {
	query := `
		SELECT ` + selectColumns + ` FROM expenses
		WHERE user_id = $1 AND category = $2
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID, category)
}

func (r *PostgresRepository) ListByUserInRange(ctx context.Context, userID string, from time.Time, to time.Time) ([]*models.Expense, error) {
	query := `
		SELECT ` + selectColumns + ` FROM expenses
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, userID, from, to)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		err := rows.Scan(
			&expense.ID, &expense.UserID, &expense.Amount, &expense.Description,
			&expense.Category, &expense.ReceiptKey, &expense.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) TotalByUser(ctx context.Context, userID string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1`
	return r.total(ctx, query, userID)
}

func (r *PostgresRepository) TotalByUserAndCategory(ctx context.Context, userID string, category string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = $1 AND category = $2`
	return r.total(ctx, query, userID, category)
}

func (r *PostgresRepository) total(ctx context.Context, query string, args ...any) (float64, error) {
	var total float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, expense *models.Expense) error {
	query := `
		UPDATE expenses
		SET amount = $1, description = $2, category = $3
		WHERE id = $4 AND user_id = $5
	`
	return r.exec(ctx, query,
		expense.Amount, expense.Description, expense.Category, expense.ID, expense.UserID)
}

func (r *PostgresRepository) SetReceiptKey(ctx context.Context, id string, userID string, key string) error {
	query := `UPDATE expenses SET receipt_key = $1 WHERE id = $2 AND user_id = $3`
	return r.exec(ctx, query, key, id, userID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string, userID string) error {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`
	return r.exec(ctx, query, id, userID)
}

// exec runs a statement that must touch exactly one owned row; zero rows means
// the record is missing or owned by someone else.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
