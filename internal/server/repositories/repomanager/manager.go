// Package repomanager vends the credential store and token ledger for the
// configured storage driver and prepares its schema.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type RepositoryManager interface {
	// RunMigrations brings the schema (or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	RefreshTokens() refreshtokens.Store
	// NeedsPruning reports whether expired ledger entries must be removed by
	// a refreshtokens.Pruner rather than by the store itself.
	NeedsPruning() bool
	Close(ctx context.Context) error
}

// Options select and address the storage backend.
type Options struct {
	Driver            string
	DSN               string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (RepositoryManager, error) {
	switch opts.Driver {
	case DriverPostgres:
		return OpenSQL(ctx, "pgx", opts.DSN)
	case DriverSQLite:
		return OpenSQL(ctx, "sqlite", opts.DSN)
	case DriverMongo:
		return OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoTransactions)
	case DriverMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
