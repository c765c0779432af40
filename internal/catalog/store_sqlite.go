package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore serves catalog documents from a SQLite database, for
// deployments that ship the catalog as a single file instead of a directory.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and ensures the
// documents table exists.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "catalog: sqlite exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS catalog_documents (
	key        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);`
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "catalog: sqlite migrate")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM catalog_documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "catalog: sqlite get %s", key)
	}
	return body, nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM catalog_documents ORDER BY key`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite scan key")
		}
		keys = append(keys, key)
	}
	return keys, eris.Wrap(rows.Err(), "catalog: sqlite iterate keys")
}

func (s *SQLiteStore) Put(ctx context.Context, key, body string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO catalog_documents (key, body, updated_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT (key) DO UPDATE SET body = excluded.body, updated_at = datetime('now')`,
		key, body)
	return eris.Wrapf(err, "catalog: sqlite put %s", key)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
