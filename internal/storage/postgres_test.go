package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(db), mock
}

func TestPostgresStore_Get(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgresStore(t)

	t.Run("returns stored value", func(t *testing.T) {
		mock.ExpectQuery(`SELECT value FROM kv_entries`).
			WithArgs("pom_bolt_project_x").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"id":"x"}`)))

		value, err := store.Get(ctx, "pom_bolt_project_x")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"x"}`), value)
	})

	t.Run("missing key maps to ErrKeyNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT value FROM kv_entries`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Put(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgresStore(t)

	mock.ExpectExec(`INSERT INTO kv_entries`).
		WithArgs("pom_bolt_project_x", []byte("payload")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Put(ctx, "pom_bolt_project_x", []byte("payload")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgresStore(t)

	mock.ExpectQuery(`SELECT key FROM kv_entries`).
		WithArgs("pom_bolt_project_").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).
			AddRow("pom_bolt_project_a").
			AddRow("pom_bolt_project_b"))

	keys, err := store.List(ctx, "pom_bolt_project_")
	require.NoError(t, err)
	assert.Equal(t, []string{"pom_bolt_project_a", "pom_bolt_project_b"}, keys)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, mock := setupPostgresStore(t)

	mock.ExpectExec(`DELETE FROM kv_entries`).
		WithArgs("pom_bolt_project_x").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(ctx, "pom_bolt_project_x"))
	require.NoError(t, mock.ExpectationsWereMet())
}
