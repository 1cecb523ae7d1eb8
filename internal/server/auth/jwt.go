// Package auth is the signing primitive for session tokens: HS256 JWTs over
// a fixed claim set.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed token payload. iat, exp and jti come from the
// embedded registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string              `json:"user_id"`
	TokenType models.TokenKind    `json:"token_type"`
	Verify    models.VerifyStatus `json:"verify"`
	Role      models.Role         `json:"role"`
	Level     models.Level        `json:"level"`
}

// Identity returns the subject and authorization claims carried by c.
func (c *Claims) Identity() models.Identity {
	return models.Identity{UserID: c.UserID, Verify: c.Verify, Role: c.Role, Level: c.Level}
}

// ExpiresAtTime returns exp as time.Time, zero when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAtTime returns iat as time.Time, zero when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// Sign returns the compact HS256 serialization of claims.
func Sign(claims *Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse verifies the signature with secret and checks exp against now.
// Every failure wraps common.ErrInvalidToken.
func Parse(tokenString string, secret []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Decode reads the claims of a token without verifying it. Only use it on
// tokens this process has just signed.
func Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	return claims, nil
}
