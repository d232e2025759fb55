package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_values (
	session_id TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	expires_at INTEGER,
	PRIMARY KEY (session_id, key)
);`

// SQLiteStore keeps session values in a local SQLite file. It backs the CLI's
// persisted login and suits single-node server deployments.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, ns, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_values
		 WHERE session_id = ? AND key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		ns, key, s.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, ns, key, value string, ttl time.Duration) error {
	var expires sql.NullInt64
	if at := expiresAt(s.now(), ttl); !at.IsZero() {
		expires = sql.NullInt64{Int64: at.UnixNano(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_values (session_id, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		ns, key, value, expires,
	)
	if err != nil {
		return fmt.Errorf("set session value %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ns, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ? AND key = ?`, ns, key); err != nil {
		return fmt.Errorf("delete session value %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, ns string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ?`, ns); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
