package kvstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// MemoryStore keeps JSON documents in memory.
// With a quota it behaves like browser local storage: a write that would
// push the total size over the quota fails with ErrQuotaExceeded.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	size  int
	quota int
}

// NewMemoryStore creates an unbounded in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// NewMemoryStoreWithQuota creates an in-memory store limited to quota bytes of JSON
func NewMemoryStoreWithQuota(quota int) *MemoryStore {
	s := NewMemoryStore()
	s.quota = quota
	return s
}

// Get decodes the value stored under key into dest
func (s *MemoryStore) Get(key string, dest any) bool {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		slog.Warn("Stored value is malformed, treating as absent", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key as JSON
func (s *MemoryStore) Set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s: %w", key, err)
	}
	return s.SetRaw(key, data)
}

// SetRaw stores pre-encoded bytes under key without validating them
func (s *MemoryStore) SetRaw(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newSize := s.size - len(s.data[key]) + len(data)
	if s.quota > 0 && newSize > s.quota {
		return fmt.Errorf("write %s (%d bytes): %w", key, len(data), ErrQuotaExceeded)
	}

	s.data[key] = append([]byte(nil), data...)
	s.size = newSize
	return nil
}

// Remove deletes key
func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.size -= len(s.data[key])
	delete(s.data, key)
}

// Clear removes every key
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)
	s.size = 0
}

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }
