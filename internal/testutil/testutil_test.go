package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("subdir", "file.txt")
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, filepath.Join(env.RootDir(), "subdir", "file.txt"), path)
}

func TestTestEnv_WriteReadFileString(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("nested/test.txt", "test string content")

	assert.Equal(t, "test string content", env.ReadFileString("nested/test.txt"))
	assert.True(t, env.FileExists("nested/test.txt"))
	assert.False(t, env.FileExists("missing.txt"))
}

func TestTestEnv_MkdirAll(t *testing.T) {
	env := NewTestEnv(t)

	env.MkdirAll("nested/dir/structure")

	info, err := os.Stat(env.Path("nested/dir/structure"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestTestEnv_ListFiles(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("file1.txt", "1")
	env.WriteFileString("file2.txt", "2")
	env.MkdirAll("subdir")

	files := env.ListFiles(".")
	assert.ElementsMatch(t, []string{"file1.txt", "file2.txt", "subdir"}, files)
}

func TestTestEnv_Chdir(t *testing.T) {
	origDir, err := os.Getwd()
	require.NoError(t, err)

	t.Run("inner", func(t *testing.T) {
		env := NewTestEnv(t)
		env.MkdirAll("work")
		env.Chdir("work")

		wd, err := os.Getwd()
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(env.Path("work"))
		require.NoError(t, err)
		got, err := filepath.EvalSymlinks(wd)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, origDir, wd)
}

func TestGoldenHelper_AssertGolden(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("golden/test.golden", "expected content")

	golden := NewGoldenHelper(t, env.Path("golden"))
	golden.AssertGolden("test.golden", []byte("expected content"))
	golden.AssertGoldenString("test.golden", "expected content")
}

func TestGoldenHelper_AssertGoldenJSON(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("golden/stats.json", "{\n  \"a\": 1,\n  \"b\": [1, 2]\n}\n")

	golden := NewGoldenHelper(t, env.Path("golden"))
	golden.AssertGoldenJSON("stats.json", []byte(`{"b":[1,2],"a":1}`))
}

func TestGoldenHelper_Exists(t *testing.T) {
	env := NewTestEnv(t)
	env.MkdirAll("golden")

	golden := NewGoldenHelper(t, env.Path("golden"))
	assert.False(t, golden.Exists("nonexistent.golden"))

	env.WriteFileString("golden/exists.golden", "content")
	assert.True(t, golden.Exists("exists.golden"))
	assert.Equal(t, "content", golden.MustReadGoldenString("exists.golden"))
}

func TestResetConfig(t *testing.T) {
	origOverwrite := config.OverwriteFiles

	t.Run("inner", func(t *testing.T) {
		ResetConfig(t)
		config.OverwriteFiles = !origOverwrite
		assert.NotEqual(t, origOverwrite, config.OverwriteFiles)
	})

	assert.Equal(t, origOverwrite, config.OverwriteFiles)
}

func TestSetTestConfig(t *testing.T) {
	env := NewTestEnv(t)
	SetTestConfig(t, env)

	assert.Equal(t, "sqlite", config.StoreBackend())
	assert.Equal(t, env.Path("library.db"), config.StorePath())
	assert.Equal(t, env.Path("cache", "test-cache.db"), config.CacheDBFile())
	assert.Equal(t, env.Path("exports"), config.ExportDir())
	assert.Equal(t, env.Path("notes"), config.NotesDir())
	assert.Equal(t, "bookiebuddy_books", config.BooksKey())
}

func TestSetViperValue(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Run("inner", func(t *testing.T) {
		SetViperValue(t, "test.key", "test-value")
		assert.Equal(t, "test-value", viper.GetString("test.key"))
	})
}

func TestSetupTestCache(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	env := NewTestEnv(t)
	cacheDir := SetupTestCache(t, env)

	assert.DirExists(t, cacheDir)
	assert.Contains(t, viper.GetString("cache.dbfile"), "test-cache.db")
	assert.Equal(t, "24h", viper.GetString("cache.ttl"))
}

func TestSaveRestoreConfigState(t *testing.T) {
	orig := config.OverwriteFiles
	t.Cleanup(func() { config.OverwriteFiles = orig })

	config.OverwriteFiles = true
	state := SaveConfigState()

	config.OverwriteFiles = false
	RestoreConfigState(state)

	assert.True(t, config.OverwriteFiles)
}
