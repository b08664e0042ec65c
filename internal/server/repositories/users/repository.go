package users

import (
	"context"

	"github.com/dkolesnikov/expensio/internal/server/models"
)

// Repository is the identity store consumed by the authenticator and the
// request gate. Reads dominate; the only writes are registration and account
// removal.
type Repository interface {
	// Create persists a new user and returns it with the generated ID.
	// Unique-constraint violations surface as common.ErrDuplicateUsername or
	// common.ErrDuplicateEmail, which makes the store the final arbiter for
	// concurrent registrations racing past the pre-checks.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns common.ErrorNotFound for unknown usernames.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	Delete(ctx context.Context, id string) error
}
