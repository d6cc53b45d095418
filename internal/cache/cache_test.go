package cache

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/bookiebuddy/internal/testutil"
)

type testVolume struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

const testTable = "test_cache"

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	ValidCacheTableNames[testTable] = true
	t.Cleanup(func() {
		delete(ValidCacheTableNames, testTable)
	})

	env := testutil.NewTestEnv(t)
	dbPath := filepath.Join(env.RootDir(), "cache.db")
	viper.Set("cache.dbfile", dbPath)
	viper.Set("cache.ttl", "1h")

	if err := ResetGlobalCache(); err != nil {
		t.Fatalf("Failed to reset global cache: %v", err)
	}
	t.Cleanup(func() { _ = ResetGlobalCache() })

	db, err := GetGlobalCache()
	if err != nil {
		t.Fatalf("Failed to open cache database: %v", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS test_cache (
			cache_key TEXT PRIMARY KEY NOT NULL,
			data TEXT NOT NULL,
			cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`
	if err := db.CreateTable(schema); err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}
	return db
}

func TestOpenCreatesGoogleBooksTables(t *testing.T) {
	db := setupTestCache(t)

	for _, table := range Sources["googlebooks"] {
		if err := db.Set(table, "k", `{}`); err != nil {
			t.Fatalf("Set(%s) error = %v", table, err)
		}
		if !db.CacheExists(table, "k") {
			t.Fatalf("expected entry in %s", table)
		}
	}
}

func TestGetOrFetchCachesOnMiss(t *testing.T) {
	setupTestCache(t)

	calls := 0
	fetch := func() (testVolume, error) {
		calls++
		return testVolume{ID: "v1", Title: "Dune"}, nil
	}

	result, fromCache, err := GetOrFetch(testTable, "dune", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if fromCache {
		t.Fatal("expected first call to miss the cache")
	}
	if result.Title != "Dune" {
		t.Fatalf("unexpected result %+v", result)
	}

	result, fromCache, err = GetOrFetch(testTable, "dune", fetch)
	if err != nil {
		t.Fatalf("GetOrFetch() second call error = %v", err)
	}
	if !fromCache {
		t.Fatal("expected second call to hit the cache")
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}
	if result.ID != "v1" {
		t.Fatalf("unexpected cached result %+v", result)
	}
}

func TestGetOrFetchRefetchesExpiredEntries(t *testing.T) {
	db := setupTestCache(t)

	if err := db.setAt(testTable, "dune", `{"id":"stale"}`, time.Now().Add(-2*time.Hour)); err != nil {
		t.Fatalf("failed to seed stale entry: %v", err)
	}

	result, fromCache, err := GetOrFetch(testTable, "dune", func() (testVolume, error) {
		return testVolume{ID: "fresh"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch() error = %v", err)
	}
	if fromCache || result.ID != "fresh" {
		t.Fatalf("expected fresh fetch, got %+v (fromCache=%v)", result, fromCache)
	}

	cached, hit, err := db.Get(testTable, "dune", time.Hour)
	if err != nil || !hit {
		t.Fatalf("expected refreshed entry, hit=%v err=%v", hit, err)
	}
	var stored testVolume
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		t.Fatalf("failed to decode cached entry: %v", err)
	}
	if stored.ID != "fresh" {
		t.Fatalf("cached entry = %+v, want fresh", stored)
	}
}

func TestGetOrFetchWithTTLExpiresEmptyResultsSooner(t *testing.T) {
	db := setupTestCache(t)
	viper.Set("cache.ttl", "720h")

	if err := db.setAt(testTable, "nothing", `[]`, time.Now().Add(-200*time.Hour)); err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
	if err := db.setAt(testTable, "something", `[{"id":"a"}]`, time.Now().Add(-200*time.Hour)); err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}

	selector := SelectNegativeCacheTTL(func(v []testVolume) bool { return len(v) == 0 })
	fetch := func() ([]testVolume, error) { return []testVolume{{ID: "new"}}, nil }

	_, fromCache, err := GetOrFetchWithTTL(testTable, "nothing", fetch, selector)
	if err != nil {
		t.Fatalf("GetOrFetchWithTTL() error = %v", err)
	}
	if fromCache {
		t.Fatal("expected empty result older than the negative TTL to be refetched")
	}

	result, fromCache, err := GetOrFetchWithTTL(testTable, "something", fetch, selector)
	if err != nil {
		t.Fatalf("GetOrFetchWithTTL() error = %v", err)
	}
	if !fromCache || len(result) != 1 || result[0].ID != "a" {
		t.Fatalf("expected cached non-empty result, got %+v (fromCache=%v)", result, fromCache)
	}
}

func TestGetOrFetchPropagatesFetchErrors(t *testing.T) {
	setupTestCache(t)

	sentinel := errors.New("boom")
	_, fromCache, err := GetOrFetch(testTable, "k", func() (testVolume, error) {
		return testVolume{}, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want wrapped sentinel", err)
	}
	if fromCache {
		t.Fatal("expected fromCache=false on error")
	}
}

func TestClearExpired(t *testing.T) {
	db := setupTestCache(t)

	_ = db.setAt(testTable, "old", `{}`, time.Now().Add(-2*time.Hour))
	_ = db.setAt(testTable, "recent", `{}`, time.Now().Add(-30*time.Minute))
	_ = db.Set(testTable, "new", `{}`)

	if err := db.ClearExpired(testTable, 45*time.Minute); err != nil {
		t.Fatalf("ClearExpired() error = %v", err)
	}

	if db.CacheExists(testTable, "old") {
		t.Error("expected old entry to be cleared")
	}
	if !db.CacheExists(testTable, "recent") || !db.CacheExists(testTable, "new") {
		t.Error("expected recent entries to remain")
	}
}

func TestInvalidateSource(t *testing.T) {
	db := setupTestCache(t)

	_ = db.Set("googlebooks_cache", "a", `[]`)
	_ = db.Set("googlebooks_cache", "b", `[]`)

	rows, err := db.InvalidateSource("googlebooks_cache")
	if err != nil {
		t.Fatalf("InvalidateSource() error = %v", err)
	}
	if rows != 2 {
		t.Fatalf("rows deleted = %d, want 2", rows)
	}
	if db.CacheExists("googlebooks_cache", "a") {
		t.Fatal("expected entries to be removed")
	}
}

func TestInvalidTableNamesAreRejected(t *testing.T) {
	db := setupTestCache(t)

	if _, err := db.InvalidateSource("books; DROP TABLE x"); err == nil {
		t.Fatal("expected invalid table name error")
	}
	if err := db.Set("nope", "k", "v"); err == nil {
		t.Fatal("expected invalid table name error")
	}
	if _, _, err := db.Get("nope", "k", time.Hour); err == nil {
		t.Fatal("expected invalid table name error")
	}
}

func TestConfiguredTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	if got := ConfiguredTTL(); got != DefaultCacheTTL {
		t.Fatalf("default TTL = %v", got)
	}
	viper.Set("cache.ttl", "2h")
	if got := ConfiguredTTL(); got != 2*time.Hour {
		t.Fatalf("configured TTL = %v", got)
	}
	viper.Set("cache.ttl", "soon")
	if got := ConfiguredTTL(); got != DefaultCacheTTL {
		t.Fatalf("invalid TTL = %v, want default", got)
	}
}

func TestInvalidateCacheCmd(t *testing.T) {
	db := setupTestCache(t)
	_ = db.Set("googlebooks_cache", "a", `[]`)
	_ = db.Set("googlebooks_volume_cache", "v", `{}`)

	if err := (&InvalidateCacheCmd{Source: "googlebooks"}).Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if db.CacheExists("googlebooks_cache", "a") || db.CacheExists("googlebooks_volume_cache", "v") {
		t.Fatal("expected googlebooks tables to be emptied")
	}

	if err := (&InvalidateCacheCmd{Source: "omdb"}).Run(); err == nil {
		t.Fatal("expected unknown source to be rejected")
	}
}
