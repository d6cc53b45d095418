// Package fileutil holds small helpers for writing notes and exports to disk.
package fileutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
	"?", "",
	"*", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
)

// SanitizeFilename replaces characters that are not allowed in file names
func SanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)
	return strings.Trim(strings.TrimSpace(name), ".")
}

// GetMarkdownFilePath returns the note path for name inside directory
func GetMarkdownFilePath(name string, directory string) string {
	return filepath.Join(directory, SanitizeFilename(name)+".md")
}

// FileExists reports whether a regular file exists at filePath
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFileWithOverwrite writes data unless the file exists and overwrite is false.
// Missing parent directories are created. Returns whether the file was written.
func WriteFileWithOverwrite(filePath string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, perm); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return true, nil
}

// WriteJSONFile writes data as indented JSON, respecting the overwrite flag
func WriteJSONFile(data any, filePath string, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		slog.Info("JSON file already exists, skipping", "filename", filePath)
		return false, nil
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	slog.Debug("Writing JSON file", "filename", filePath, "overwrite", overwrite)
	return WriteFileWithOverwrite(filePath, append(jsonData, '\n'), 0644, true)
}
