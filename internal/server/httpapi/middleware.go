package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/dkolesnikov/expensio/internal/server/auth"
	"github.com/dkolesnikov/expensio/internal/server/authz"
	"github.com/gin-gonic/gin"
)

// authenticate is the request gate. It reads the Authorization header from
// the incoming request, and when a syntactically present bearer token checks
// out against a stored identity, attaches that principal to the request
// context. Every failure short of a panic is non-fatal: the request proceeds
// unauthenticated and the authorize middleware decides its fate.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.runGate(c)
		c.Next()
	}
}

func (s *Server) runGate(c *gin.Context) {
	ctx := c.Request.Context()

	// A repeated gate pass must not re-resolve an already attached principal.
	if _, ok := auth.PrincipalFromContext(ctx); ok {
		return
	}

	// A panic anywhere in the gate leaves the request unauthenticated rather
	// than taking the server down.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic in request gate", "recovered", r)
		}
	}()

	header := c.GetHeader(common.AuthHeaderName)
	if header == "" {
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != strings.TrimSpace(common.BearerPrefix) {
		s.logger.Debug(ctx, "malformed authorization header")
		return
	}
	tokenString := parts[1]

	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "token subject unknown", "subject", claims.Subject)
		} else {
			s.logger.Error(ctx, "identity lookup failed", "error", err)
		}
		return
	}

	if err := auth.CheckToken(tokenString, s.jwtSecret, user.Username); err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			s.logger.Debug(ctx, "token expired", "subject", claims.Subject)
		case errors.Is(err, common.ErrSubjectMismatch):
			s.logger.Warn(ctx, "token subject mismatch", "subject", claims.Subject)
		default:
			s.logger.Debug(ctx, "token rejected", "error", err)
		}
		return
	}

	c.Request = c.Request.WithContext(auth.ContextWithPrincipal(ctx, user))
}

// authorize enforces the path policy. It is the sole rejection point: any
// request a matching rule requires authentication for, arriving without a
// principal, gets one uniform 401 regardless of why the gate declined.
func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.policy.RequirementFor(c.Request.URL.Path) == authz.RequireAuthenticated {
			if _, ok := auth.PrincipalFromContext(c.Request.Context()); !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
				return
			}
		}
		c.Next()
	}
}
