package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves PostgreSQL (driver "pgx") and SQLite (driver
// "sqlite") through the same repositories.
type SQLRepositoryManager struct {
	db            *sql.DB
	driver        string
	users         *users.SQLRepository
	refreshTokens *refreshtokens.SQLStore
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewSQLRepositoryManager wraps an open connection.
func NewSQLRepositoryManager(db *sql.DB, driver string) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:            db,
		driver:        driver,
		users:         users.NewSQLRepository(db, driver),
		refreshTokens: refreshtokens.NewSQLStore(db, driver),
	}
}

// OpenSQL opens and pings dsn with the given database/sql driver.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLRepositoryManager, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return NewSQLRepositoryManager(db, driver), nil
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *SQLRepositoryManager) RefreshTokens() refreshtokens.Store {
	return m.refreshTokens
}

func (m *SQLRepositoryManager) NeedsPruning() bool {
	return true
}

func (m *SQLRepositoryManager) gooseDialect() string {
	if m.driver == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}

// RunMigrations applies the embedded goose migrations.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.gooseDialect()); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *SQLRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}
