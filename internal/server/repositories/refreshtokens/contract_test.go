package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	return NewSQLStore(db, "sqlite")
}

func stores(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
	}
}

func entry(id, user, hash string, expires time.Time) *models.LedgerEntry {
	return &models.LedgerEntry{ID: id, UserID: user, TokenHash: hash, IssuedAt: iat, ExpiresAt: expires}
}

func TestStoreContract(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)

			require.NoError(t, s.Create(ctx, entry("1", "u1", "h1", exp)))
			require.NoError(t, s.Create(ctx, entry("2", "u1", "h2", iat.Add(time.Minute))))
			require.NoError(t, s.Create(ctx, entry("3", "u2", "h3", exp)))

			err := s.Create(ctx, entry("4", "u1", "h1", exp))
			assert.True(t, errors.Is(err, common.ErrorAlreadyExists), "duplicate hash: %v", err)

			ok, err := s.Exists(ctx, "h1", iat.Add(time.Hour))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.Exists(ctx, "h2", iat.Add(time.Hour))
			require.NoError(t, err)
			assert.False(t, ok, "expired entry must not count as live")

			n, err := s.CountByUser(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			n, err = s.DeleteExpired(ctx, iat.Add(time.Hour))
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			deleted, err := s.Delete(ctx, "h1")
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = s.Delete(ctx, "h1")
			require.NoError(t, err)
			assert.False(t, deleted, "second delete must report absence")

			n, err = s.DeleteByUser(ctx, "u2")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}

func TestStoreWithTx_Atomic(t *testing.T) {
	for name, mk := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := mk(t)
			require.NoError(t, s.Create(ctx, entry("1", "u1", "old", exp)))

			errBoom := errors.New("boom")
			err := s.WithTx(ctx, func(ctx context.Context, repo Repository) error {
				if _, err := repo.Delete(ctx, "old"); err != nil {
					return err
				}
				if err := repo.Create(ctx, entry("2", "u1", "new", exp)); err != nil {
					return err
				}
				return errBoom
			})
			require.ErrorIs(t, err, errBoom)

			ok, err := s.Exists(ctx, "old", iat)
			require.NoError(t, err)
			assert.True(t, ok, "rolled back delete must leave old entry")
			ok, err = s.Exists(ctx, "new", iat)
			require.NoError(t, err)
			assert.False(t, ok, "rolled back insert must not be visible")

			require.NoError(t, s.WithTx(ctx, func(ctx context.Context, repo Repository) error {
				if _, err := repo.Delete(ctx, "old"); err != nil {
					return err
				}
				return repo.Create(ctx, entry("2", "u1", "new", exp))
			}))

			n, err := s.CountByUser(ctx, "u1")
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)
		})
	}
}

func TestMemoryStore_ConcurrentDeleteHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, entry("1", "u1", "h", exp)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithTx(ctx, func(ctx context.Context, repo Repository) error {
				ok, err := repo.Delete(ctx, "h")
				if err != nil {
					return err
				}
				if ok {
					wins.Add(1)
				}
				return nil
			})
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestPruner_PruneOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, entry("1", "u1", "a", iat.Add(time.Minute))))
	require.NoError(t, s.Create(ctx, entry("2", "u1", "b", exp)))

	p := NewPruner(s, time.Hour, logging.Nop{})
	p.now = func() time.Time { return iat.Add(time.Hour) }

	n, err := p.PruneOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	left, err := s.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, left)
}

func TestPruner_RunStopsOnCancel(t *testing.T) {
	p := NewPruner(NewMemoryStore(), 10*time.Millisecond, logging.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pruner did not stop")
	}
}
