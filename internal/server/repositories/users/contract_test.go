package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteRepo(t *testing.T) Repository {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	return NewSQLRepository(db, "sqlite")
}

func TestRepositoryContract(t *testing.T) {
	impls := map[string]func(t *testing.T) Repository{
		"memory": func(*testing.T) Repository { return NewMemoryRepository() },
		"sqlite": newSQLiteRepo,
	}

	for name, mk := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := mk(t)

			u := &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "h1", EmailVerifyToken: "evt", Level: models.Silver}
			require.NoError(t, r.Create(ctx, u))
			require.NotEmpty(t, u.ID)

			err := r.Create(ctx, &models.User{Name: "Other", Email: "alice@example.com", PasswordHash: "h"})
			assert.ErrorIs(t, err, common.ErrorAlreadyExists)

			got, err := r.FindByEmail(ctx, "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)
			assert.Equal(t, "evt", got.EmailVerifyToken)
			assert.Equal(t, models.Unverified, got.Verify)
			assert.Equal(t, models.Silver, got.Level)

			require.NoError(t, r.MarkVerified(ctx, u.ID))
			got, err = r.FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, models.Verified, got.Verify)
			assert.Empty(t, got.EmailVerifyToken)

			require.NoError(t, r.SetForgotPasswordToken(ctx, u.ID, "fpt"))
			got, err = r.FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "fpt", got.ForgotPasswordToken)

			require.NoError(t, r.UpdatePassword(ctx, u.ID, "h2"))
			got, err = r.FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "h2", got.PasswordHash)
			assert.Empty(t, got.ForgotPasswordToken)

			require.NoError(t, r.SetEmailVerifyToken(ctx, u.ID, "evt2"))
			got, err = r.FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, "evt2", got.EmailVerifyToken)

			_, err = r.FindByID(ctx, "missing")
			assert.ErrorIs(t, err, common.ErrorNotFound)
			assert.ErrorIs(t, r.MarkVerified(ctx, "missing"), common.ErrorNotFound)
		})
	}
}
