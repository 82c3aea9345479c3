package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethanolivertroy/antimirror/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_keys (
	record TEXT NOT NULL,
	key TEXT NOT NULL,
	first_seen DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (record, key)
);`

// SQLiteStore keeps records as rows in a local sqlite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and creates if needed) the database at path
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &PersistenceError{Op: "open", Backend: "sqlite", Err: fmt.Errorf("failed to create directory %s: %w", dir, err)}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Backend: "sqlite", Err: err}
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, &PersistenceError{Op: "open", Backend: "sqlite", Err: fmt.Errorf("failed to initialize schema: %w", err)}
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns every key stored for record key
func (s *SQLiteStore) Load(ctx context.Context, key string) (models.SeenSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM seen_keys WHERE record = ?`, key)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "sqlite", Key: key, Err: err}
	}
	defer rows.Close()

	set := models.NewSeenSet()
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &PersistenceError{Op: "load", Backend: "sqlite", Key: key, Err: err}
		}
		set.Add(k)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "sqlite", Key: key, Err: err}
	}
	return set, nil
}

// Save inserts any keys not yet stored. Existing rows are left alone.
func (s *SQLiteStore) Save(ctx context.Context, key string, set models.SeenSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &PersistenceError{Op: "save", Backend: "sqlite", Key: key, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO seen_keys (record, key) VALUES (?, ?)`)
	if err != nil {
		return &PersistenceError{Op: "save", Backend: "sqlite", Key: key, Err: err}
	}
	defer stmt.Close()

	for _, k := range set.Keys() {
		if _, err := stmt.ExecContext(ctx, key, k); err != nil {
			return &PersistenceError{Op: "save", Backend: "sqlite", Key: key, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &PersistenceError{Op: "save", Backend: "sqlite", Key: key, Err: err}
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
