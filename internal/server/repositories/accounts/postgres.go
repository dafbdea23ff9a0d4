package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

const accountColumns = `id, first_name, last_name, email, password_hash,
		two_factor_code, two_factor_expires_at, reset_token, reset_token_expires_at,
		created_at, updated_at`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, first_name, last_name, email, password_hash,
		 two_factor_code, two_factor_expires_at, reset_token, reset_token_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at
		 `

	tfCode, tfExp := challengeArgs(account.TwoFactor)
	rsToken, rsExp := challengeArgs(account.Reset)

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.FirstName, account.LastName, account.Email, account.PasswordHash,
		tfCode, tfExp, rsToken, rsExp,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = $1 FOR UPDATE`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByResetToken(ctx context.Context, token string, notExpiredAt time.Time) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE reset_token = $1 AND reset_token_expires_at > $2`
	return r.getOne(ctx, query, token, notExpiredAt)
}

func (r *PostgresRepository) Save(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE accounts SET
		 first_name = $2, last_name = $3, password_hash = $4,
		 two_factor_code = $5, two_factor_expires_at = $6,
		 reset_token = $7, reset_token_expires_at = $8,
		 updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	tfCode, tfExp := challengeArgs(account.TwoFactor)
	rsToken, rsExp := challengeArgs(account.Reset)

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.FirstName, account.LastName, account.PasswordHash,
		tfCode, tfExp, rsToken, rsExp,
	).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Account, error) {
	var (
		a             models.Account
		tfCode, rsTok sql.NullString
		tfExp, rsExp  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash,
		&tfCode, &tfExp, &rsTok, &rsExp,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.TwoFactor = challengeFromColumns(tfCode, tfExp)
	a.Reset = challengeFromColumns(rsTok, rsExp)
	return &a, nil
}

// challengeArgs maps an optional challenge onto its pair of nullable columns.
func challengeArgs(c *models.Challenge) (sql.NullString, sql.NullTime) {
	if c == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: c.Secret, Valid: true}, sql.NullTime{Time: c.ExpiresAt, Valid: true}
}

func challengeFromColumns(secret sql.NullString, exp sql.NullTime) *models.Challenge {
	if !secret.Valid || !exp.Valid {
		return nil
	}
	return &models.Challenge{Secret: secret.String, ExpiresAt: exp.Time}
}
