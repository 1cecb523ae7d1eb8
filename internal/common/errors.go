// Package common defines shared constants and sentinel errors used across
// the sessionkeeper server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorBanned       = errors.New("account is banned")
	ErrorValidation   = errors.New("validation error")
	ErrorRateLimited  = errors.New("too many requests")

	// ErrInvalidToken covers malformed, forged, wrong-kind and expired tokens.
	// Callers never learn which check failed.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrRefreshTokenUsed is returned for a well-signed refresh token that has
	// no live ledger entry: it was rotated, revoked or never persisted.
	ErrRefreshTokenUsed = errors.New("used refresh token or not exist")
)
