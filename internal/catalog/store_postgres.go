package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore serves catalog documents from Postgres, for deployments
// where the catalog is centrally managed.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool and ensures the
// documents table exists.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: postgres connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "catalog: postgres ping")
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresWithPool wraps an existing pool, used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const migration = `
CREATE TABLE IF NOT EXISTS catalog_documents (
	key        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	_, err := s.pool.Exec(ctx, migration)
	return eris.Wrap(err, "catalog: postgres migrate")
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var body string
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM catalog_documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", eris.Wrapf(err, "catalog: postgres get %s", key)
	}
	return body, nil
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM catalog_documents ORDER BY key`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: postgres list keys")
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, eris.Wrap(err, "catalog: postgres scan key")
		}
		keys = append(keys, key)
	}
	return keys, eris.Wrap(rows.Err(), "catalog: postgres iterate keys")
}

func (s *PostgresStore) Put(ctx context.Context, key, body string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO catalog_documents (key, body, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`,
		key, body)
	return eris.Wrapf(err, "catalog: postgres put %s", key)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
