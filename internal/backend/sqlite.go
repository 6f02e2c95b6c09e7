package backend

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kalambet/lockbox/internal/secure"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS secrets (
	namespace TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
)`

// SQLiteBackend stores secrets in a SQLite database at
// dataDir/lockbox.db. Pass ":memory:" as dataDir for an in-memory
// database (used by tests).
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(dataDir string) (*SQLiteBackend, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "lockbox.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating secrets table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Write(ctx context.Context, key, value string, opts secure.Options) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO secrets (namespace, key, value) VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		opts.Namespace(), key, value,
	)
	return err
}

func (b *SQLiteBackend) Read(ctx context.Context, key string, opts secure.Options) (*string, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		"SELECT value FROM secrets WHERE namespace = ? AND key = ?",
		opts.Namespace(), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string, opts secure.Options) error {
	_, err := b.db.ExecContext(ctx,
		"DELETE FROM secrets WHERE namespace = ? AND key = ?",
		opts.Namespace(), key,
	)
	return err
}

func (b *SQLiteBackend) ContainsKey(ctx context.Context, key string, opts secure.Options) (bool, error) {
	var n int
	err := b.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM secrets WHERE namespace = ? AND key = ?",
		opts.Namespace(), key,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *SQLiteBackend) ReadAll(ctx context.Context, opts secure.Options) (map[string]string, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT key, value FROM secrets WHERE namespace = ?",
		opts.Namespace(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

func (b *SQLiteBackend) DeleteAll(ctx context.Context, opts secure.Options) error {
	_, err := b.db.ExecContext(ctx,
		"DELETE FROM secrets WHERE namespace = ?",
		opts.Namespace(),
	)
	return err
}
