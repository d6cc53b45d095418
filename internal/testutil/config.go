package testutil

import (
	"testing"

	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	OverwriteFiles bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		OverwriteFiles: config.OverwriteFiles,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.OverwriteFiles = state.OverwriteFiles
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetTestConfig resets the configuration to its defaults with every
// file-backed location pointing inside env.
func SetTestConfig(t *testing.T, env *TestEnv) {
	t.Helper()

	ResetConfig(t)
	config.SetDefaults()

	SetupTestLibrary(t, env)
	SetupTestCache(t, env)
	viper.Set(config.KeyExportDir, env.Path("exports"))
	viper.Set(config.KeyNotesDir, env.Path("notes"))
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// viper has no Unset, so a key that was not set before stays set
	})
}

// SetupTestLibrary points the library store at a SQLite database inside env.
// Returns the database path.
func SetupTestLibrary(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("library.db")
	SetViperValue(t, config.KeyStoreBackend, "sqlite")
	SetViperValue(t, config.KeyStorePath, dbPath)

	return dbPath
}

// SetupTestCache configures viper for test caching with a temporary directory.
// It creates the cache directory and sets up viper configuration.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	cacheDir := env.Path("cache")
	env.MkdirAll("cache")

	viper.Set(config.KeyCacheDBFile, env.Path("cache", "test-cache.db"))
	viper.Set(config.KeyCacheTTL, "24h")

	return cacheDir
}
