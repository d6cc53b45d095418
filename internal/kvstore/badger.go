package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore implements Store on top of a Badger database directory
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens the Badger database in dir.
// An empty dir opens an in-memory database.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	slog.Debug("Opened Badger store", "dir", dir)
	return &BadgerStore{db: db}, nil
}

// Get decodes the value stored under key into dest
func (s *BadgerStore) Get(key string, dest any) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		slog.Warn("Stored value is unreadable, treating as absent", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key as JSON
func (s *BadgerStore) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("write %s: %w", key, ErrQuotaExceeded)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key
func (s *BadgerStore) Remove(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		slog.Warn("Failed to remove key", "key", key, "error", err)
	}
}

// Clear removes every key
func (s *BadgerStore) Clear() {
	if err := s.db.DropAll(); err != nil {
		slog.Warn("Failed to clear store", "error", err)
	}
}

// Close closes the database
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
