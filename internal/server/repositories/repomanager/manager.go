// Package repomanager hands out account repositories and runs units of work
// against them, hiding whether the backing store is PostgreSQL or memory.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
)

// RepositoryManager vends repositories and scopes a read-modify-write to a
// single transaction where the store has transactions.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	// InTx runs fn against a repository bound to one transaction. fn may be
	// invoked again if the store aborts the transaction for a retryable reason.
	InTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
	Close() error
}
