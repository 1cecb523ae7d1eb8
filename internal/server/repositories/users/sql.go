package users

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
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, name, email, password_hash, email_verify_token, forgot_password_token, verify, role, level, created_at, updated_at`

type SQLRepository struct {
	db     dbx.DBTX
	driver string
	now    func() time.Time
}

func NewSQLRepository(db dbx.DBTX, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver, now: time.Now}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.driver, query)
}

func (r *SQLRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, r.q(query),
		u.ID, u.Name, u.Email, u.PasswordHash, u.EmailVerifyToken, u.ForgotPasswordToken,
		int(u.Verify), int(u.Role), int(u.Level), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, r.q(query), arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.EmailVerifyToken, &u.ForgotPasswordToken,
		&u.Verify, &u.Role, &u.Level, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `email = ?`, email)
}

func (r *SQLRepository) update(ctx context.Context, set string, args ...any) error {
	query := `UPDATE users SET ` + set + `, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query), args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) MarkVerified(ctx context.Context, id string) error {
	return r.update(ctx, `verify = ?, email_verify_token = ''`, int(models.Verified), r.now().UTC(), id)
}

func (r *SQLRepository) SetEmailVerifyToken(ctx context.Context, id string, token string) error {
	return r.update(ctx, `email_verify_token = ?`, token, r.now().UTC(), id)
}

func (r *SQLRepository) SetForgotPasswordToken(ctx context.Context, id string, token string) error {
	return r.update(ctx, `forgot_password_token = ?`, token, r.now().UTC(), id)
}

func (r *SQLRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.update(ctx, `password_hash = ?, forgot_password_token = ''`, passwordHash, r.now().UTC(), id)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
