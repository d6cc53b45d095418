// Package kvstore provides the persistent key-value layer the library is saved to.
//
// Values are stored as JSON documents under string keys. Reads never fail: a
// missing key, an unreadable backend or a document that does not decode into
// the requested shape are all reported as "absent". Writes surface their
// failure so callers can keep memory and storage consistent.
package kvstore

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrQuotaExceeded is returned by Set when the backend has no room for the value
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Backend names accepted by Open
const (
	BackendSQLite      = "sqlite"
	BackendBadger      = "badger"
	BackendMemory      = "memory"
	BackendUnavailable = "none"
)

// Store is a JSON key-value store
type Store interface {
	// Get decodes the value stored under key into dest and reports whether it was found
	Get(key string, dest any) bool

	// Set stores value under key, replacing any previous value
	Set(key string, value any) error

	// Remove deletes key; missing keys are ignored
	Remove(key string)

	// Clear removes every key
	Clear()

	// Close releases the backend
	Close() error
}

// Get is a typed convenience wrapper around Store.Get
func Get[T any](s Store, key string) (T, bool) {
	var value T
	if !s.Get(key, &value) {
		var zero T
		return zero, false
	}
	return value, true
}

// Open creates the store for the named backend.
// path is the database file (sqlite) or directory (badger) and is ignored by
// the memory and unavailable backends.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(path)
	case BackendBadger:
		return NewBadgerStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendUnavailable:
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q; valid backends are: sqlite, badger, memory, none", backend)
	}
}

// OpenOrUnavailable opens the backend and degrades to Unavailable when it cannot be opened,
// so the library keeps working in memory for the session.
func OpenOrUnavailable(backend, path string) Store {
	store, err := Open(backend, path)
	if err != nil {
		slog.Warn("Storage unavailable, changes will not survive a restart", "backend", backend, "path", path, "error", err)
		return Unavailable{}
	}
	return store
}

// Unavailable is the store used when no storage substrate exists.
// Every read is absent and every write is silently dropped.
type Unavailable struct{}

// Get always reports absent
func (Unavailable) Get(string, any) bool { return false }

// Set is a no-op
func (Unavailable) Set(string, any) error { return nil }

// Remove is a no-op
func (Unavailable) Remove(string) {}

// Clear is a no-op
func (Unavailable) Clear() {}

// Close is a no-op
func (Unavailable) Close() error { return nil }
