// Package auth implements the building blocks of stateless authentication:
// the signed token codec, the password hasher, and the request-scoped
// principal context.
package auth

import (
	"time"

	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered token claims (subject, issuedAt, expiresAt)
// plus optional extra data. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
	Extra map[string]string `json:"extra,omitempty"`
}

// GenerateToken issues a signed HS256 token for subject with
// expiresAt = now + validityDuration. extra may be nil.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration, extra map[string]string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Extra: extra,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and returns the claims. It deliberately
// skips expiration checking so that callers can distinguish a tampered token
// from a stale one; pair it with IsExpired. Claims from a token that fails
// signature verification are never returned.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidSignature
	}

	return claims, nil
}

// IsExpired reports whether the claims' validity window has passed. Claims
// without an expiry are treated as expired.
func IsExpired(claims *Claims) bool {
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Before(time.Now())
}

// CheckToken verifies signature, expiry, and subject in that order and
// returns the first failure: ErrInvalidSignature, ErrTokenExpired, or
// ErrSubjectMismatch. A nil result means the token can be trusted for
// expectedSubject.
func CheckToken(tokenString string, secretKey []byte, expectedSubject string) error {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return err
	}
	if IsExpired(claims) {
		return common.ErrTokenExpired
	}
	if claims.Subject != expectedSubject {
		return common.ErrSubjectMismatch
	}
	return nil
}

// ValidateToken is the boolean form of CheckToken. Fails closed.
func ValidateToken(tokenString string, secretKey []byte, expectedSubject string) bool {
	return CheckToken(tokenString, secretKey, expectedSubject) == nil
}
