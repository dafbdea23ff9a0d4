package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS t (id INTEGER PRIMARY KEY, v TEXT);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err, "begin should fail when DB is closed")
}

func pgErr(code string) error {
	return fmt.Errorf("db error: %w", &pgconn.PgError{Code: code})
}

func TestWithTxRetry_RetriesSerializationFailure(t *testing.T) {
	txRetryBase = time.Millisecond
	t.Cleanup(func() { txRetryBase = 20 * time.Millisecond })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err = WithTxRetry(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		calls++
		if calls == 1 {
			return pgErr(pgerrcode.SerializationFailure)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRetry_DoesNotRetryOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	calls := 0
	boom := errors.New("boom")
	err = WithTxRetry(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithTxRetry_GivesUp(t *testing.T) {
	txRetryBase = time.Millisecond
	t.Cleanup(func() { txRetryBase = 20 * time.Millisecond })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i <= MaxTxRetries; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err = WithTxRetry(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		calls++
		return pgErr(pgerrcode.DeadlockDetected)
	})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, MaxTxRetries+1, calls)
}

func TestPgErrorClassifiers(t *testing.T) {
	assert.True(t, IsUniqueViolation(pgErr(pgerrcode.UniqueViolation)))
	assert.False(t, IsUniqueViolation(pgErr(pgerrcode.SerializationFailure)))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
	assert.True(t, IsRetryable(pgErr(pgerrcode.SerializationFailure)))
	assert.False(t, IsRetryable(pgErr(pgerrcode.UniqueViolation)))
	assert.False(t, IsRetryable(nil))
}
