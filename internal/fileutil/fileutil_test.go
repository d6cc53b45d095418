package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/bookiebuddy/internal/testutil"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal text", "Normal Text", "Normal Text"},
		{"colon", "Dune: Messiah", "Dune - Messiah"},
		{"slashes", "Either/Or\\Neither", "Either-Or-Neither"},
		{"question mark", "Who Moved My Cheese?", "Who Moved My Cheese"},
		{"quotes and pipes", `The "Best" | Worst`, "The 'Best' - Worst"},
		{"trailing dots", "  Wait... ", "Wait"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestGetMarkdownFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("notes", "Dune - Messiah.md"), GetMarkdownFilePath("Dune: Messiah", "notes"))
}

func TestFileExists(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("book.md", "content")

	assert.True(t, FileExists(env.Path("book.md")))
	assert.False(t, FileExists(env.Path("missing.md")))
	assert.False(t, FileExists(env.RootDir()))
}

func TestWriteFileWithOverwrite(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("nested", "dir", "note.md")

	written, err := WriteFileWithOverwrite(path, []byte("first"), 0644, false)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = WriteFileWithOverwrite(path, []byte("second"), 0644, false)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, "first", env.ReadFileString(filepath.Join("nested", "dir", "note.md")))

	written, err = WriteFileWithOverwrite(path, []byte("third"), 0644, true)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, "third", env.ReadFileString(filepath.Join("nested", "dir", "note.md")))
}

func TestWriteJSONFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	path := env.Path("out", "stats.json")
	data := map[string]int{"totalBooks": 3}

	written, err := WriteJSONFile(data, path, false)
	require.NoError(t, err)
	assert.True(t, written)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, data, decoded)

	written, err = WriteJSONFile(map[string]int{"totalBooks": 4}, path, false)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestWriteJSONFileRejectsUnmarshalableData(t *testing.T) {
	env := testutil.NewTestEnv(t)

	_, err := WriteJSONFile(make(chan int), env.Path("bad.json"), true)
	assert.Error(t, err)
}

func TestMarkdownBody(t *testing.T) {
	body := NewMarkdownBody().
		AddImage("http://example.com/cover.jpg").
		AddHeading(2, "Review").
		AddParagraph("  Loved it.  ").
		AddParagraph("").
		AddCallout("info", "About", "Line one\nLine two").
		AddExternalLink("Google Books", "https://books.google.com/books?id=x").
		String()

	expected := "![](http://example.com/cover.jpg)\n\n" +
		"## Review\n\n" +
		"Loved it.\n\n" +
		">[!info]- About\n> Line one\n> Line two\n\n" +
		"[Google Books](https://books.google.com/books?id=x)"
	assert.Equal(t, expected, body)
}

func TestMarkdownBodySkipsEmptyBlocks(t *testing.T) {
	body := NewMarkdownBody().
		AddImage("").
		AddHeading(9, "").
		AddCallout("info", "About", "   ").
		AddExternalLink("x", "").
		String()
	assert.Empty(t, body)
}
