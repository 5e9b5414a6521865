package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore persists histories in a single keyed table. It backs both the
// Postgres and SQLite history stores.
type SQLStore struct {
	db *sql.DB
	q  queries
}

type queries struct {
	create []string
	list   string
	insert string
	clear  string
}

// NewPostgres opens a Postgres-backed store using the pgx driver and
// creates the history table if needed.
func NewPostgres(ctx context.Context, dsn, table string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQLStore(ctx, db, postgresQueries(table))
}

// NewSQLite opens (or creates) a SQLite database file at path.
func NewSQLite(ctx context.Context, path, table string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection avoids SQLITE_BUSY on concurrent appends.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=30000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return newSQLStore(ctx, db, sqliteQueries(table))
}

func postgresQueries(table string) queries {
	t := pq.QuoteIdentifier(table)
	idx := pq.QuoteIdentifier(table + "_session_idx")
	q := queries{
		create: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				session_id TEXT NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at TIMESTAMPTZ DEFAULT now()
			)`, t),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (session_id, id)`, idx, t),
		},
		list:   fmt.Sprintf(`SELECT role, content FROM %s WHERE session_id=$1 ORDER BY id`, t),
		insert: fmt.Sprintf(`INSERT INTO %s(session_id, role, content) VALUES($1,$2,$3)`, t),
		clear:  fmt.Sprintf(`DELETE FROM %s WHERE session_id=$1`, t),
	}
	return q
}

func sqliteQueries(table string) queries {
	t := pq.QuoteIdentifier(table)
	idx := pq.QuoteIdentifier(table + "_session_idx")
	q := queries{
		create: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id TEXT NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`, t),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (session_id, id)`, idx, t),
		},
		list:   fmt.Sprintf(`SELECT role, content FROM %s WHERE session_id=? ORDER BY id`, t),
		insert: fmt.Sprintf(`INSERT INTO %s(session_id, role, content) VALUES(?,?,?)`, t),
		clear:  fmt.Sprintf(`DELETE FROM %s WHERE session_id=?`, t),
	}
	return q
}

func newSQLStore(ctx context.Context, db *sql.DB, q queries) (*SQLStore, error) {
	s := &SQLStore{db: db, q: q}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range s.q.create {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history table: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) GetOrCreate(ctx context.Context, sessionID string) ([]Turn, error) {
	if err := validate(sessionID, nil); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q.list, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	out := []Turn{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		out = append(out, Turn{Role: Role(role), Content: content})
	}
	return out, rows.Err()
}

func (s *SQLStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if err := validate(sessionID, turns); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, t := range turns {
		if _, err := tx.ExecContext(ctx, s.q.insert, sessionID, string(t.Role), t.Content); err != nil {
			return fmt.Errorf("append turn to session %s: %w", sessionID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Clear(ctx context.Context, sessionID string) error {
	if err := validate(sessionID, nil); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.q.clear, sessionID)
	return err
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
