package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	category   TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (category, id)
)`

// SQLiteStore keeps JSON records in a single table keyed by (category, id).
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite store: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Store(ctx context.Context, category, id string, v any) (err error) {
	defer func() { observe("sqlite", "store", err) }()

	data, err := json.Marshal(v)
	if err != nil {
		return &Error{Op: "store", Category: category, ID: id, Err: err}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (category, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(category, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		category, id, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &Error{Op: "store", Category: category, ID: id, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Restore(ctx context.Context, category, id string, v any) (err error) {
	defer func() { observe("sqlite", "restore", err) }()

	var data string
	err = s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE category = ? AND id = ?`, category, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, category string) (ids []string, err error) {
	defer func() { observe("sqlite", "list", err) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM records WHERE category = ? ORDER BY id`, category)
	if err != nil {
		return nil, &Error{Op: "list", Category: category, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &Error{Op: "list", Category: category, Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "list", Category: category, Err: err}
	}
	return ids, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
