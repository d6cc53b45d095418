package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GoldenHelper compares generated output with files under a golden directory.
// Setting UPDATE_GOLDEN=true rewrites the golden files instead of comparing.
type GoldenHelper struct {
	t          *testing.T
	goldenDir  string
	updateMode bool
}

// NewGoldenHelper creates a new golden file helper rooted at goldenDir.
func NewGoldenHelper(t *testing.T, goldenDir string) *GoldenHelper {
	t.Helper()

	return &GoldenHelper{
		t:          t,
		goldenDir:  goldenDir,
		updateMode: os.Getenv("UPDATE_GOLDEN") == "true",
	}
}

// GoldenPath returns the full path to a golden file.
func (g *GoldenHelper) GoldenPath(name string) string {
	return filepath.Join(g.goldenDir, name)
}

// IsUpdateMode returns true if golden files should be updated.
func (g *GoldenHelper) IsUpdateMode() bool {
	return g.updateMode
}

// AssertGolden compares actual byte for byte with the golden file.
func (g *GoldenHelper) AssertGolden(name string, actual []byte) {
	g.t.Helper()

	if g.update(name, actual) {
		return
	}
	assert.Equal(g.t, g.MustReadGoldenString(name), string(actual),
		"content does not match golden file %s", name)
}

// AssertGoldenString is AssertGolden for string content.
func (g *GoldenHelper) AssertGoldenString(name, actual string) {
	g.t.Helper()
	g.AssertGolden(name, []byte(actual))
}

// AssertGoldenJSON compares JSON content, ignoring formatting and key order.
func (g *GoldenHelper) AssertGoldenJSON(name string, actual []byte) {
	g.t.Helper()

	if g.update(name, actual) {
		return
	}
	assert.JSONEq(g.t, g.MustReadGoldenString(name), string(actual),
		"JSON content does not match golden file %s", name)
}

// MustReadGolden reads a golden file, failing the test if it cannot be read.
func (g *GoldenHelper) MustReadGolden(name string) []byte {
	g.t.Helper()

	goldenPath := g.GoldenPath(name)
	content, err := os.ReadFile(goldenPath)
	require.NoError(g.t, err, "failed to read golden file %s", goldenPath)

	return content
}

// MustReadGoldenString reads a golden file as a string.
func (g *GoldenHelper) MustReadGoldenString(name string) string {
	g.t.Helper()
	return string(g.MustReadGolden(name))
}

// Exists checks if a golden file exists.
func (g *GoldenHelper) Exists(name string) bool {
	_, err := os.Stat(g.GoldenPath(name))
	return err == nil
}

func (g *GoldenHelper) update(name string, actual []byte) bool {
	g.t.Helper()

	if !g.updateMode {
		return false
	}

	goldenPath := g.GoldenPath(name)
	require.NoError(g.t, os.MkdirAll(filepath.Dir(goldenPath), 0o755), "failed to create golden file directory")
	require.NoError(g.t, os.WriteFile(goldenPath, actual, 0o644), "failed to update golden file")

	g.t.Logf("Updated golden file: %s", goldenPath)
	return true
}
