// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential verification, and
// issuing access tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/dkolesnikov/expensio/internal/server/auth"
	"github.com/dkolesnikov/expensio/internal/server/config"
	"github.com/dkolesnikov/expensio/internal/server/models"
	"github.com/dkolesnikov/expensio/internal/server/repositories/repomanager"
)

// UserService provides authentication-related operations:
// - Register: create users with hashed passwords
// - Login: verify credentials and mint an access token
// - FindByUsername: resolve a token subject to a stored identity
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepoManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepoManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Register creates a new user with the given credentials. The email collision
// check runs before the username check, so a request colliding on both fields
// reports the duplicate email. The unique constraints in the store remain the
// final arbiter for registrations racing past these checks.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, common.ErrDuplicateEmail
	}

	exists, err = repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error checking username: %w", err)
	}
	if exists {
		return nil, common.ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the provided password against the stored hash and, on
// success, returns a signed access token. Unknown usernames yield
// ErrorNotFound and wrong passwords ErrInvalidCredentials; callers are
// expected to collapse both into one generic rejection.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", common.ErrorInternal
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}
	return s.generateAccessToken(user)
}

// FindByUsername resolves a token subject to the stored identity.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.Username, s.jwtSecret, s.accessTokenValidityDuration,
		map[string]string{"uid": user.ID})
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}
