package expenses

import (
	"context"
	"time"

	"github.com/dkolesnikov/expensio/internal/server/models"
)

// Repository is the per-user expense store. Every read and write is scoped by
// owner so one user can never see or touch another user's records.
type Repository interface {
	Create(ctx context.Context, expense *models.Expense) (*models.Expense, error)

	// GetByIDAndUser returns common.ErrorNotFound when the record does not
	// exist or belongs to another user.
	GetByIDAndUser(ctx context.Context, id string, userID string) (*models.Expense, error)

	ListByUser(ctx context.Context, userID string) ([]*models.Expense, error)
	ListByUserAndCategory(ctx context.Context, userID string, category string) ([]*models.Expense, error)
	ListByUserInRange(ctx context.Context, userID string, from time.Time, to time.Time) ([]*models.Expense, error)

	TotalByUser(ctx context.Context, userID string) (float64, error)
	TotalByUserAndCategory(ctx context.Context, userID string, category string) (float64, error)

	Update(ctx context.Context, expense *models.Expense) error
	SetReceiptKey(ctx context.Context, id string, userID string, key string) error
	Delete(ctx context.Context, id string, userID string) error
}
