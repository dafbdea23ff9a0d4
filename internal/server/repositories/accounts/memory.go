package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. Records are copied on
// the way in and out, so callers never hold a pointer into the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.Account
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrConflict
	}
	if _, ok := r.byID[account.ID]; ok {
		return nil, common.ErrConflict
	}

	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = account.Clone()
	r.byEmail[account.Email] = account.ID
	return account, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

// GetByEmailForUpdate has no row locks to take in memory; callers serialize
// through lock.Locker instead.
func (r *MemoryRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	return r.GetByEmail(ctx, email)
}

func (r *MemoryRepository) GetByResetToken(ctx context.Context, token string, notExpiredAt time.Time) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if a.Reset != nil && a.Reset.Secret == token && a.Reset.ValidAt(notExpiredAt) {
			return a.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Save(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[account.ID]
	if !ok {
		return common.ErrorNotFound
	}

	if account.Reset != nil {
		for id, other := range r.byID {
			if id != account.ID && other.Reset != nil && other.Reset.Secret == account.Reset.Secret {
				return common.ErrConflict
			}
		}
	}

	next := account.Clone()
	// email and identity are immutable
	next.Email = cur.Email
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = r.now()

	r.byID[account.ID] = next
	account.UpdatedAt = next.UpdatedAt
	return nil
}

// Len reports how many accounts are stored.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
