package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/bff-auth/store"
)

type fakeRow struct {
	data []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.data
	return nil
}

// fakePG answers each statement with a canned command tag and records the SQL.
type fakePG struct {
	statements []string
	tag        string
	row        fakeRow
}

func (f *fakePG) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, sql)
	return pgconn.NewCommandTag(f.tag), nil
}

func (f *fakePG) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.statements = append(f.statements, sql)
	return f.row
}

func TestPostgres(t *testing.T) {
	ctx := context.Background()

	t.Run("put if absent conflict", func(t *testing.T) {
		db := &fakePG{tag: "INSERT 0 0"}
		s := store.NewPostgresWithConn(db, "kv_items")
		require.ErrorIs(t, s.PutIfAbsent(ctx, keyA, record{Name: "x"}), store.ErrConditionFailed)
		require.Contains(t, db.statements[0], "ON CONFLICT (pk, sk) DO NOTHING")
	})

	t.Run("put if absent created", func(t *testing.T) {
		db := &fakePG{tag: "INSERT 0 1"}
		s := store.NewPostgresWithConn(db, "kv_items")
		require.NoError(t, s.PutIfAbsent(ctx, keyA, record{Name: "x"}))
	})

	t.Run("update missing", func(t *testing.T) {
		db := &fakePG{tag: "UPDATE 0"}
		s := store.NewPostgresWithConn(db, "kv_items")
		require.ErrorIs(t, s.Update(ctx, keyA, map[string]any{"name": "y"}), store.ErrNotFound)
	})

	t.Run("get missing", func(t *testing.T) {
		db := &fakePG{row: fakeRow{err: pgx.ErrNoRows}}
		s := store.NewPostgresWithConn(db, "kv_items")
		require.ErrorIs(t, s.Get(ctx, keyA, &record{}), store.ErrNotFound)
	})

	t.Run("get decodes jsonb", func(t *testing.T) {
		db := &fakePG{row: fakeRow{data: []byte(`{"pk":"p","sk":"s","name":"x","count":4}`)}}
		s := store.NewPostgresWithConn(db, "kv_items")
		var got record
		require.NoError(t, s.Get(ctx, keyA, &got))
		require.Equal(t, record{Name: "x", Count: 4}, got)
	})

	t.Run("table name is quoted", func(t *testing.T) {
		db := &fakePG{tag: "CREATE TABLE"}
		s := store.NewPostgresWithConn(db, "bff-sessions")
		require.NoError(t, s.EnsureSchema(ctx))
		require.True(t, strings.Contains(db.statements[0], `"bff-sessions"`))
	})
}
