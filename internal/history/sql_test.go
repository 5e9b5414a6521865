package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "histories", "test.db")
	s, err := NewSQLite(context.Background(), path, "message_store")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	require.NoError(t, s.Append(ctx, "s1", User("hi"), Assistant("hello")))
	require.NoError(t, s.Append(ctx, "s2", User("other")))
	require.NoError(t, s.Append(ctx, "s1", User("how are you")))

	turns, err = s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("hi"), Assistant("hello"), User("how are you")}, turns)

	require.NoError(t, s.Clear(ctx, "s1"))
	turns, err = s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	other, err := s.GetOrCreate(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("other")}, other)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewSQLite(ctx, path, "message_store")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "s1", User("remember me")))
	require.NoError(t, s.Close())

	s, err = NewSQLite(ctx, path, "message_store")
	require.NoError(t, err)
	defer s.Close()

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("remember me")}, turns)
}

func TestSQLiteStoreRejectsInvalidRole(t *testing.T) {
	s := newTestSQLite(t)
	err := s.Append(context.Background(), "s1", User("ok"), Turn{Role: "tool", Content: "x"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	turns, err := s.GetOrCreate(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, turns, "validation happens before any row is written")
}

func TestQueryDialects(t *testing.T) {
	tests := []struct {
		name        string
		build       func(string) queries
		table       string
		quoted      string
		list        string
		insert      string
		clear       string
		createToken string
	}{
		{
			name:        "postgres",
			build:       postgresQueries,
			table:       "message_store",
			quoted:      `"message_store"`,
			list:        `SELECT role, content FROM "message_store" WHERE session_id=$1 ORDER BY id`,
			insert:      `INSERT INTO "message_store"(session_id, role, content) VALUES($1,$2,$3)`,
			clear:       `DELETE FROM "message_store" WHERE session_id=$1`,
			createToken: "BIGSERIAL",
		},
		{
			name:        "sqlite",
			build:       sqliteQueries,
			table:       "message_store",
			quoted:      `"message_store"`,
			list:        `SELECT role, content FROM "message_store" WHERE session_id=? ORDER BY id`,
			insert:      `INSERT INTO "message_store"(session_id, role, content) VALUES(?,?,?)`,
			clear:       `DELETE FROM "message_store" WHERE session_id=?`,
			createToken: "AUTOINCREMENT",
		},
		{
			name:        "postgres quotes hostile table name",
			build:       postgresQueries,
			table:       `odd"name`,
			quoted:      `"odd""name"`,
			list:        `SELECT role, content FROM "odd""name" WHERE session_id=$1 ORDER BY id`,
			insert:      `INSERT INTO "odd""name"(session_id, role, content) VALUES($1,$2,$3)`,
			clear:       `DELETE FROM "odd""name" WHERE session_id=$1`,
			createToken: "BIGSERIAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.build(tt.table)
			assert.Equal(t, tt.list, q.list)
			assert.Equal(t, tt.insert, q.insert)
			assert.Equal(t, tt.clear, q.clear)
			require.Len(t, q.create, 2)
			assert.Contains(t, q.create[0], "CREATE TABLE IF NOT EXISTS "+tt.quoted)
			assert.Contains(t, q.create[0], tt.createToken)
			assert.Contains(t, q.create[1], "ON "+tt.quoted+" (session_id, id)")
		})
	}
}

// Set HISTORY_TEST_DATABASE_URL to run against a live Postgres.
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("HISTORY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HISTORY_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	table := fmt.Sprintf("history_test_%d", time.Now().UnixNano())
	s, err := NewPostgres(ctx, dsn, table)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(table))
		_ = s.Close()
	})

	require.NoError(t, s.Append(ctx, "s1", User("hi"), Assistant("hello")))
	require.NoError(t, s.Append(ctx, "s2", User("other")))
	require.NoError(t, s.Append(ctx, "s1", User("how are you")))

	turns, err := s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("hi"), Assistant("hello"), User("how are you")}, turns)

	require.NoError(t, s.Clear(ctx, "s1"))
	turns, err = s.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	other, err := s.GetOrCreate(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, []Turn{User("other")}, other)
}
