package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
)

// InMemoryRepositoryManager serves a single MemoryRepository. InTx offers no
// rollback; callers only write through Save at the end of a unit of work.
type InMemoryRepositoryManager struct {
	accounts *accounts.MemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{accounts: accounts.NewMemoryRepository()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *InMemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return fn(ctx, m.accounts)
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
