package cmdutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ResolveOutputDir picks a command's output directory: the flag value, else the
// value configured under configKey, else fallback. The directory is created.
func ResolveOutputDir(flagValue, configKey, fallback string) (string, error) {
	dir := flagValue
	if dir == "" && configKey != "" {
		dir = viper.GetString(configKey)
	}
	if dir == "" {
		dir = fallback
	}
	dir = filepath.Clean(dir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}
