// Package config exposes typed access to the viper configuration.
package config

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyStoreBackend       = "storage.backend"
	KeyStorePath          = "storage.path"
	KeyBooksKey           = "storage.key"
	KeyCacheDBFile        = "cache.dbfile"
	KeyCacheTTL           = "cache.ttl"
	KeyGoogleBooksBaseURL = "googlebooks.baseurl"
	KeyGoogleBooksAPIKey  = "googlebooks.apikey"
	KeyGoogleBooksRate    = "googlebooks.ratelimit"
	KeyExportDir          = "export.dir"
	KeyNotesDir           = "notes.dir"
	KeyGoodreadsCSV       = "goodreads.csvfile"
	KeyDatasetteEnabled   = "datasette.enabled"
	KeyDatasetteMode      = "datasette.mode"
	KeyDatasetteDBFile    = "datasette.dbfile"
	KeyDatasetteDatabase  = "datasette.database"
	KeyDatasetteURL       = "datasette.remote_url"
	KeyDatasetteToken     = "datasette.api_token"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing notes and exports are replaced
	OverwriteFiles bool
)

// SetDefaults registers default values and environment bindings
func SetDefaults() {
	viper.SetDefault(KeyStoreBackend, "sqlite")
	viper.SetDefault(KeyStorePath, "./bookiebuddy.db")
	viper.SetDefault(KeyBooksKey, "bookiebuddy_books")
	viper.SetDefault(KeyCacheDBFile, "./cache.db")
	viper.SetDefault(KeyCacheTTL, "720h") // 30 days
	viper.SetDefault(KeyGoogleBooksBaseURL, "https://www.googleapis.com/books/v1")
	viper.SetDefault(KeyGoogleBooksRate, 2.0)
	viper.SetDefault(KeyExportDir, ".")
	viper.SetDefault(KeyNotesDir, "./notes")

	// Datasette publishing is opt-in
	viper.SetDefault(KeyDatasetteEnabled, false)
	viper.SetDefault(KeyDatasetteMode, "local")
	viper.SetDefault(KeyDatasetteDBFile, "./bookiebuddy-datasette.db")
	viper.SetDefault(KeyDatasetteDatabase, "bookiebuddy")

	viper.AutomaticEnv()
	if err := viper.BindEnv(KeyGoogleBooksAPIKey, "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv(KeyStoreBackend, "BOOKIEBUDDY_STORAGE"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv(KeyDatasetteToken, "DATASETTE_API_TOKEN"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// StoreBackend is the key-value backend holding the library
func StoreBackend() string { return viper.GetString(KeyStoreBackend) }

// StorePath is the database file (sqlite) or directory (badger) of the library
func StorePath() string { return viper.GetString(KeyStorePath) }

// BooksKey is the key the library payload is stored under
func BooksKey() string { return viper.GetString(KeyBooksKey) }

// CacheDBFile is the catalog cache database
func CacheDBFile() string { return viper.GetString(KeyCacheDBFile) }

// CacheTTL is how long catalog responses stay fresh
func CacheTTL() time.Duration {
	ttl, err := time.ParseDuration(viper.GetString(KeyCacheTTL))
	if err != nil || ttl <= 0 {
		return 720 * time.Hour
	}
	return ttl
}

// GoogleBooksBaseURL is the Google Books API root
func GoogleBooksBaseURL() string { return viper.GetString(KeyGoogleBooksBaseURL) }

// GoogleBooksAPIKey is the optional Google Books API key
func GoogleBooksAPIKey() string { return viper.GetString(KeyGoogleBooksAPIKey) }

// GoogleBooksRateLimit is the request rate allowed against Google Books, per second
func GoogleBooksRateLimit() float64 { return viper.GetFloat64(KeyGoogleBooksRate) }

// ExportDir is where library exports are written
func ExportDir() string { return viper.GetString(KeyExportDir) }

// NotesDir is where book notes are written
func NotesDir() string { return viper.GetString(KeyNotesDir) }

// GoodreadsCSV is the default Goodreads export path
func GoodreadsCSV() string { return viper.GetString(KeyGoodreadsCSV) }

// DatasetteEnabled reports whether imports also publish the library to Datasette
func DatasetteEnabled() bool { return viper.GetBool(KeyDatasetteEnabled) }

// DatasetteMode is "local" (SQLite file) or "remote" (insert API)
func DatasetteMode() string { return viper.GetString(KeyDatasetteMode) }

// DatasetteDBFile is the SQLite file written in local mode
func DatasetteDBFile() string { return viper.GetString(KeyDatasetteDBFile) }

// DatasetteDatabase is the database name used in remote mode
func DatasetteDatabase() string { return viper.GetString(KeyDatasetteDatabase) }

// DatasetteURL is the remote Datasette instance
func DatasetteURL() string { return viper.GetString(KeyDatasetteURL) }

// DatasetteToken authenticates against the remote instance
func DatasetteToken() string { return viper.GetString(KeyDatasetteToken) }
