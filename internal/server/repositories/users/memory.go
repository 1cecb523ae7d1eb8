package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. Returned users are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]models.User
	email map[string]string
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]models.User),
		email: make(map[string]string),
		now:   time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.email[u.Email]; taken {
		return common.ErrorAlreadyExists
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, taken := r.byID[u.ID]; taken {
		return common.ErrorAlreadyExists
	}
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	r.byID[u.ID] = *u
	r.email[u.Email] = u.ID
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	id, ok := r.email[email]
	r.mu.RUnlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryRepository) modify(id string, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	u.UpdatedAt = r.now().UTC()
	r.byID[id] = u
	return nil
}

func (r *MemoryRepository) MarkVerified(_ context.Context, id string) error {
	return r.modify(id, func(u *models.User) {
		u.Verify = models.Verified
		u.EmailVerifyToken = ""
	})
}

func (r *MemoryRepository) SetEmailVerifyToken(_ context.Context, id string, token string) error {
	return r.modify(id, func(u *models.User) { u.EmailVerifyToken = token })
}

func (r *MemoryRepository) SetForgotPasswordToken(_ context.Context, id string, token string) error {
	return r.modify(id, func(u *models.User) { u.ForgotPasswordToken = token })
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	return r.modify(id, func(u *models.User) {
		u.PasswordHash = passwordHash
		u.ForgotPasswordToken = ""
	})
}

// SetVerifyStatus overrides the verify flag, e.g. to ban an account.
func (r *MemoryRepository) SetVerifyStatus(id string, v models.VerifyStatus) error {
	return r.modify(id, func(u *models.User) { u.Verify = v })
}
