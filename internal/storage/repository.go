package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is a KV backed by a single SQLite table.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, path: dbPath}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) (Record, error) {
	var rec Record
	err := r.db.QueryRowContext(ctx,
		`SELECT value, version FROM kv WHERE key = ?`, key,
	).Scan(&rec.Value, &rec.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", key, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte, expect int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var (
		res sql.Result
		err error
	)
	if expect == 0 {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO kv (key, value, version, updated_at) VALUES (?, ?, 1, ?)
			 ON CONFLICT(key) DO NOTHING`, key, value, now)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE kv SET value = ?, version = version + 1, updated_at = ?
			 WHERE key = ? AND version = ?`, value, now, key, expect)
	}
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", key, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("put %s at version %d: %w", key, expect, ErrConflict)
	}

	slog.DebugContext(ctx, "Value saved to SQLite",
		"key", key,
		"version", expect+1,
		"bytes", len(value))

	return expect + 1, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Path returns the database file location.
func (r *SQLiteRepository) Path() string { return r.path }
