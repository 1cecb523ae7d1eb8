package refreshtokens

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

type memoryRepository struct {
	tokens map[string]models.LedgerEntry
}

func (r memoryRepository) Create(_ context.Context, t *models.LedgerEntry) error {
	if _, ok := r.tokens[t.TokenHash]; ok {
		return common.ErrorAlreadyExists
	}
	r.tokens[t.TokenHash] = *t
	return nil
}

func (r memoryRepository) Delete(_ context.Context, tokenHash string) (bool, error) {
	if _, ok := r.tokens[tokenHash]; !ok {
		return false, nil
	}
	delete(r.tokens, tokenHash)
	return true, nil
}

func (r memoryRepository) Exists(_ context.Context, tokenHash string, now time.Time) (bool, error) {
	t, ok := r.tokens[tokenHash]
	return ok && t.ExpiresAt.After(now), nil
}

func (r memoryRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for h, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (r memoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for h, t := range r.tokens {
		if !t.ExpiresAt.After(now) {
			delete(r.tokens, h)
			n++
		}
	}
	return n, nil
}

func (r memoryRepository) CountByUser(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, t := range r.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

// MemoryStore is a process-local ledger for tests and single-node
// development. WithTx works on a copy that replaces the live map only when
// fn succeeds.
type MemoryStore struct {
	mu   sync.Mutex
	repo memoryRepository
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{repo: memoryRepository{tokens: make(map[string]models.LedgerEntry)}}
}

func (s *MemoryStore) Create(ctx context.Context, t *models.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Create(ctx, t)
}

func (s *MemoryStore) Delete(ctx context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, tokenHash)
}

func (s *MemoryStore) Exists(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Exists(ctx, tokenHash, now)
}

func (s *MemoryStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteByUser(ctx, userID)
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteExpired(ctx, now)
}

func (s *MemoryStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.CountByUser(ctx, userID)
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := memoryRepository{tokens: maps.Clone(s.repo.tokens)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.repo = tx
	return nil
}
