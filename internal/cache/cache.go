// Package cache keeps responses from external catalog APIs in a local SQLite database.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lepinkainen/bookiebuddy/internal/config"
)

const (
	// DefaultCacheTTL is the default time-to-live for cached entries (30 days)
	DefaultCacheTTL = 720 * time.Hour
	// NegativeCacheTTL is the TTL for empty responses (7 days)
	NegativeCacheTTL = 168 * time.Hour
)

// FetchFunc fetches data from an external source on a cache miss
type FetchFunc[T any] func() (T, error)

// CacheDB manages the SQLite connection used for caching
type CacheDB struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

var (
	globalCache     *CacheDB
	globalCacheOnce sync.Once
)

// ResetGlobalCache closes the shared cache so the next GetGlobalCache reopens it.
// Mostly useful in tests that change cache.dbfile.
func ResetGlobalCache() error {
	if globalCache != nil {
		if err := globalCache.Close(); err != nil {
			return err
		}
	}
	globalCache = nil
	globalCacheOnce = sync.Once{}
	return nil
}

// GetGlobalCache returns the shared cache database, opening it from cache.dbfile on first use
func GetGlobalCache() (*CacheDB, error) {
	var initErr error
	globalCacheOnce.Do(func() {
		dbPath := config.CacheDBFile()
		if dbPath == "" {
			dbPath = "./cache.db"
		}
		globalCache, initErr = Open(dbPath)
	})
	if initErr != nil {
		globalCacheOnce = sync.Once{}
		return nil, initErr
	}
	if globalCache == nil {
		return nil, errors.New("cache database is not available")
	}
	return globalCache, nil
}

// Open opens the database at dbPath and creates every cache table
func Open(dbPath string) (*CacheDB, error) {
	c, err := NewCacheDB(dbPath)
	if err != nil {
		return nil, err
	}
	for _, schema := range AllCacheSchemas {
		if err := c.CreateTable(schema); err != nil {
			closeErr := c.Close()
			return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), closeErr)
		}
	}
	return c, nil
}

// NewCacheDB opens the database connection without creating tables
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	return &CacheDB{db: db, path: dbPath}, nil
}

// Path returns the database file path
func (c *CacheDB) Path() string {
	return c.path
}

// CreateTable executes a schema statement
func (c *CacheDB) CreateTable(schema string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InvalidateSource deletes every entry in tableName and returns the number removed
func (c *CacheDB) InvalidateSource(tableName string) (int64, error) {
	if err := validateTableName(tableName); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(fmt.Sprintf("DELETE FROM %s", tableName))
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache table cleared", "table", tableName, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// validateTableName guards the table names interpolated into SQL
func validateTableName(tableName string) error {
	if !ValidCacheTableNames[tableName] {
		return fmt.Errorf("invalid cache table name: %s", tableName)
	}
	return nil
}

// Get returns the cached value for key if it is younger than ttl
func (c *CacheDB) Get(tableName, key string, ttl time.Duration) (string, bool, error) {
	data, cachedAt, found, err := c.lookup(tableName, key)
	if err != nil || !found {
		return "", false, err
	}

	if age := time.Now().UTC().Sub(cachedAt); age > ttl {
		slog.Debug("Cache expired", "table", tableName, "key", key, "age", age)
		return "", false, nil
	}
	return data, true, nil
}

func (c *CacheDB) lookup(tableName, key string) (string, time.Time, bool, error) {
	if err := validateTableName(tableName); err != nil {
		return "", time.Time{}, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	query := fmt.Sprintf(`SELECT data, cached_at FROM %s WHERE cache_key = ?`, tableName)

	var data string
	var cachedAt time.Time
	err := c.db.QueryRow(query, key).Scan(&data, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("failed to query cache: %w", err)
	}
	return data, cachedAt, true, nil
}

// Set stores data under key, stamped with the current time
func (c *CacheDB) Set(tableName, key, data string) error {
	return c.setAt(tableName, key, data, time.Now().UTC())
}

func (c *CacheDB) setAt(tableName, key, data string, at time.Time) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (cache_key, data, cached_at) VALUES (?, ?, ?)`, tableName)
	if _, err := c.db.Exec(query, key, data, at.UTC()); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// ClearExpired removes entries older than ttl
func (c *CacheDB) ClearExpired(tableName string, ttl time.Duration) error {
	if err := validateTableName(tableName); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().UTC().Add(-ttl)
	result, err := c.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE cached_at < ?`, tableName), cutoff)
	if err != nil {
		return fmt.Errorf("failed to clear expired cache: %w", err)
	}

	if rows, _ := result.RowsAffected(); rows > 0 {
		slog.Info("Cleared expired cache entries", "table", tableName, "count", rows)
	}
	return nil
}

// CacheExists reports whether key has an entry, expired or not
func (c *CacheDB) CacheExists(tableName, key string) bool {
	_, _, found, err := c.lookup(tableName, key)
	return err == nil && found
}

// ConfiguredTTL reads cache.ttl, falling back to DefaultCacheTTL
func ConfiguredTTL() time.Duration {
	return config.CacheTTL()
}

// GetOrFetch returns the cached value for key or calls fetch and caches its result.
// The second return value reports whether the value came from the cache.
func GetOrFetch[T any](tableName, cacheKey string, fetch FetchFunc[T]) (T, bool, error) {
	return GetOrFetchWithTTL(tableName, cacheKey, fetch, nil)
}

// GetOrFetchWithTTL is GetOrFetch with a per-value TTL. ttlSelector decides how long a value
// stays fresh; it is applied both when reading a cached value and after a fetch.
// A nil selector uses the configured TTL for everything.
func GetOrFetchWithTTL[T any](tableName, cacheKey string, fetch FetchFunc[T], ttlSelector func(T) time.Duration) (T, bool, error) {
	var zero T

	db, err := GetGlobalCache()
	if err != nil {
		slog.Warn("Failed to initialize cache, fetching directly", "error", err)
		data, fetchErr := fetch()
		return data, false, fetchErr
	}

	defaultTTL := ConfiguredTTL()
	selectTTL := func(v T) time.Duration {
		if ttlSelector == nil {
			return defaultTTL
		}
		return ttlSelector(v)
	}

	cached, cachedAt, found, err := db.lookup(tableName, cacheKey)
	if err != nil {
		slog.Warn("Failed to read cache", "table", tableName, "key", cacheKey, "error", err)
	}
	if found {
		var result T
		if err := json.Unmarshal([]byte(cached), &result); err != nil {
			slog.Warn("Failed to unmarshal cached data, will refetch", "table", tableName, "key", cacheKey, "error", err)
		} else if age := time.Now().UTC().Sub(cachedAt); age <= selectTTL(result) {
			slog.Debug("Cache hit", "table", tableName, "key", cacheKey)
			return result, true, nil
		} else {
			slog.Debug("Cache expired", "table", tableName, "key", cacheKey, "age", age)
		}
	}

	slog.Debug("Cache miss, fetching data", "table", tableName, "key", cacheKey)
	data, err := fetch()
	if err != nil {
		return zero, false, fmt.Errorf("failed to fetch data: %w", err)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to marshal data for caching", "table", tableName, "key", cacheKey, "error", err)
		return data, false, nil
	}
	if err := db.Set(tableName, cacheKey, string(jsonData)); err != nil {
		// caching failure does not fail the lookup
		slog.Warn("Failed to cache data", "table", tableName, "key", cacheKey, "error", err)
	} else {
		slog.Debug("Data cached successfully", "table", tableName, "key", cacheKey, "ttl", selectTTL(data))
	}

	return data, false, nil
}

// SelectNegativeCacheTTL keeps empty results for NegativeCacheTTL and everything else for
// the configured TTL
func SelectNegativeCacheTTL[T any](isEmpty func(T) bool) func(T) time.Duration {
	return func(result T) time.Duration {
		if isEmpty(result) {
			return min(NegativeCacheTTL, ConfiguredTTL())
		}
		return ConfiguredTTL()
	}
}
