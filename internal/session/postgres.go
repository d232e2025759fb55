package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by PostgresStore.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	expires_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (session_id, key)
);
CREATE INDEX IF NOT EXISTS session_values_expires_at_idx
	ON session_values (expires_at) WHERE expires_at IS NOT NULL;`

// PostgresStore keeps session values in PostgreSQL so they survive restarts
// and are shared between server replicas.
type PostgresStore struct {
	db   DBTX
	pool *pgxpool.Pool // nil when constructed over a bare DBTX
}

// NewPostgresStore wraps an existing pool. Call EnsureSchema before use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool, pool: pool}
}

// OpenPostgresStore connects to url, applies pool limits and ensures the
// schema exists.
func OpenPostgresStore(ctx context.Context, url string, maxConns, minConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse session database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect session database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping session database: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the session_values table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("create session schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ns, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM session_values
		 WHERE session_id = $1 AND key = $2
		   AND (expires_at IS NULL OR expires_at > now())`,
		ns, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, ns, key, value string, ttl time.Duration) error {
	var expires *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expires = &t
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO session_values (session_id, key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (session_id, key)
		 DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		ns, key, value, expires,
	)
	if err != nil {
		return fmt.Errorf("set session value %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, ns, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session_values WHERE session_id = $1 AND key = $2`, ns, key); err != nil {
		return fmt.Errorf("delete session value %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, ns string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session_values WHERE session_id = $1`, ns); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM session_values WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close releases the pool if the store owns one.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
