// Package refreshtokens is the token ledger: one entry per live refresh
// token, keyed by the token's SHA-256.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Repository is the CRUD surface of the ledger.
type Repository interface {
	// Create inserts an entry. A second entry for the same hash fails with
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, token *models.LedgerEntry) error
	// Delete removes the entry for tokenHash and reports whether it existed.
	Delete(ctx context.Context, tokenHash string) (bool, error)
	// Exists reports whether an unexpired entry for tokenHash exists at now.
	Exists(ctx context.Context, tokenHash string, now time.Time) (bool, error)
	// DeleteByUser removes every entry of userID.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	// DeleteExpired removes entries whose expiry is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// CountByUser counts entries of userID, expired or not.
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// Store is a Repository that can also run several calls as one unit.
type Store interface {
	Repository
	// WithTx runs fn against a repository bound to a single transaction.
	// fn must only use the repository it is given.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
