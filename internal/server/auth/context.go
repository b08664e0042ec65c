package auth

import (
	"context"

	"github.com/dkolesnikov/expensio/internal/server/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// ContextWithPrincipal attaches the authenticated principal to the request
// context. The request gate calls it at most once per request.
func ContextWithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}

// PrincipalFromContext returns the authenticated principal, or false when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey).(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
