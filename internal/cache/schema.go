package cache

// GoogleBooksCacheSchema stores Google Books search responses keyed by normalized query
const GoogleBooksCacheSchema = `
CREATE TABLE IF NOT EXISTS googlebooks_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_googlebooks_cached_at ON googlebooks_cache(cached_at);
`

// GoogleBooksVolumeCacheSchema stores single Google Books volumes keyed by volume id
const GoogleBooksVolumeCacheSchema = `
CREATE TABLE IF NOT EXISTS googlebooks_volume_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_googlebooks_volume_cached_at ON googlebooks_volume_cache(cached_at);
`

// AllCacheSchemas is applied when the cache database is opened
var AllCacheSchemas = []string{
	GoogleBooksCacheSchema,
	GoogleBooksVolumeCacheSchema,
}

// Sources maps the names accepted by `cache invalidate` to their tables
var Sources = map[string][]string{
	"googlebooks": {"googlebooks_cache", "googlebooks_volume_cache"},
}

// ValidCacheTableNames is the whitelist of table names that may be interpolated into queries
var ValidCacheTableNames = map[string]bool{
	"googlebooks_cache":        true,
	"googlebooks_volume_cache": true,
}
