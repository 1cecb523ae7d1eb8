package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLRepository implements Repository over dbx.DBTX for PostgreSQL (pgx)
// and SQLite. Queries are written with "?" and rebound per driver.
type SQLRepository struct {
	db     dbx.DBTX
	driver string
}

// NewSQLRepository binds a repository to db. driver is the database/sql
// driver name, used for placeholder style.
func NewSQLRepository(db dbx.DBTX, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.driver, query)
}

func (r *SQLRepository) Create(ctx context.Context, t *models.LedgerEntry) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, r.q(query), t.ID, t.UserID, t.TokenHash, t.IssuedAt.UTC(), t.ExpiresAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete is the compare-and-delete step of rotation: only the caller whose
// statement removed the row sees true.
func (r *SQLRepository) Delete(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM refresh_tokens WHERE token_hash = ?`), tokenHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) Exists(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	query := `SELECT COUNT(*) FROM refresh_tokens WHERE token_hash = ? AND expires_at > ?`

	var n int64
	if err := r.db.QueryRowContext(ctx, r.q(query), tokenHash, now.UTC()).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM refresh_tokens WHERE user_id = ?`), userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM refresh_tokens WHERE expires_at <= ?`), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, r.q(`SELECT COUNT(*) FROM refresh_tokens WHERE user_id = ?`), userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// SQLStore adds transactions on top of SQLRepository.
type SQLStore struct {
	*SQLRepository
	conn *sql.DB
}

func NewSQLStore(conn *sql.DB, driver string) *SQLStore {
	return &SQLStore{SQLRepository: NewSQLRepository(conn, driver), conn: conn}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return dbx.WithTx(ctx, s.conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewSQLRepository(tx, s.driver))
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
