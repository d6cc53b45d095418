package kvstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"
)

// kvSchema defines the single key-value table.
// "data" holds the JSON document, "updated_at" is informational.
const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements Store on top of a local SQLite database file
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the schema exists
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite store requires a database path")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	// Single writer; one connection keeps writes ordered
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to store database: %w", err), closeErr)
	}

	if _, err := db.Exec(kvSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create kv table: %w", err), closeErr)
	}

	slog.Debug("Opened SQLite store", "path", dbPath)

	return &SQLiteStore{
		db:   db,
		path: dbPath,
	}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get decodes the value stored under key into dest
func (s *SQLiteStore) Get(key string, dest any) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow(`SELECT data FROM kv_store WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		slog.Warn("Failed to read from store", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		slog.Warn("Stored value is malformed, treating as absent", "key", key, "error", err)
		return false
	}

	return true
}

// Set stores value under key as JSON
func (s *SQLiteStore) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO kv_store (key, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

// Remove deletes key
func (s *SQLiteStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		slog.Warn("Failed to remove key", "key", key, "error", err)
	}
}

// Clear removes every key
func (s *SQLiteStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM kv_store`)
	if err != nil {
		slog.Warn("Failed to clear store", "error", err)
		return
	}

	rows, _ := result.RowsAffected()
	slog.Debug("Store cleared", "rows_deleted", rows)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
