// Package accounts stores account records: a PostgreSQL repository for
// deployments and an in-memory one for development and tests.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the record store behind the credential lifecycle. Emails
// passed in are expected to be normalized already.
//
// Lookups return common.ErrorNotFound when nothing matches; Create returns
// common.ErrConflict when the email is taken.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// GetByEmailForUpdate is GetByEmail that also locks the row for the
	// rest of the surrounding transaction, where the store supports it.
	GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error)
	// GetByResetToken matches the token exactly and only while its expiry
	// is strictly after notExpiredAt.
	GetByResetToken(ctx context.Context, token string, notExpiredAt time.Time) (*models.Account, error)
	// Save replaces the mutable state of an existing record in one write.
	Save(ctx context.Context, account *models.Account) error
}
