package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestManagers_SatisfyInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ RepositoryManager = NewPostgresRepositoryManagerFromDB(db)
	var _ RepositoryManager = NewInMemoryRepositoryManager()
}

func TestPostgres_AccountsIsPostgres(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManagerFromDB(db)
	if _, ok := m.Accounts().(*accounts.PostgresRepository); !ok {
		t.Fatalf("Accounts() returned %T", m.Accounts())
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManagerFromDB(db)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManagerFromDB(db)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPostgres_InTxCommitsAndRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	m := NewPostgresRepositoryManagerFromDB(db)

	mock.ExpectBegin()
	mock.ExpectCommit()
	err := m.InTx(context.Background(), func(ctx context.Context, repo accounts.Repository) error {
		if _, ok := repo.(*accounts.PostgresRepository); !ok {
			t.Fatalf("repo is %T", repo)
		}
		return nil
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectRollback()
	boom := errors.New("boom")
	err = m.InTx(context.Background(), func(ctx context.Context, repo accounts.Repository) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInMemory_InTxUsesSharedRepository(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.RunMigrations(ctx))

	err := m.InTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		_, err := repo.Create(ctx, &models.Account{ID: "1", Email: "a@x.com"})
		return err
	})
	require.NoError(t, err)

	got, err := m.Accounts().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)
	require.NoError(t, m.Close())
}
