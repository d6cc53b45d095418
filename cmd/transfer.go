package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lepinkainen/bookiebuddy/internal/cmdutil"
	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/lepinkainen/bookiebuddy/internal/fileutil"
	"github.com/lepinkainen/bookiebuddy/internal/stats"
)

// exportFileName is the dated snapshot name using the UTC date, e.g. bookiebuddy-library-2025-03-14.json
func exportFileName(t time.Time) string {
	return fmt.Sprintf("bookiebuddy-library-%s.json", t.UTC().Format("2006-01-02"))
}

// StatsCmd represents the stats command
type StatsCmd struct {
	JSON   bool   `help:"Print the statistics as JSON"`
	Output string `short:"o" help:"Write the statistics as JSON to this file"`
}

func (s *StatsCmd) Run() error {
	return withLibrary(func(lib *libraryHandle) error {
		computed := stats.Compute(lib.Books(), now())

		if s.Output != "" {
			written, err := fileutil.WriteJSONFile(computed, s.Output, config.OverwriteFiles)
			if err != nil {
				return err
			}
			if written {
				slog.Info("Wrote statistics", "path", s.Output)
			}
			return nil
		}

		if s.JSON {
			return printJSON(computed)
		}
		renderStats(stdout, computed)
		return nil
	})
}

// ExportCmd represents the export command
type ExportCmd struct {
	Output string `short:"o" help:"Directory to write the snapshot to (defaults to export.dir)"`
}

func (e *ExportCmd) Run() error {
	dir, err := cmdutil.ResolveOutputDir(e.Output, config.KeyExportDir, ".")
	if err != nil {
		return err
	}

	return withLibrary(func(lib *libraryHandle) error {
		data, err := lib.Export()
		if err != nil {
			return err
		}

		path := filepath.Join(dir, exportFileName(now()))
		written, err := fileutil.WriteFileWithOverwrite(path, append(data, '\n'), 0644, config.OverwriteFiles)
		if err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		if !written {
			return fmt.Errorf("export %s already exists (use --overwrite to replace it)", path)
		}

		slog.Info("Exported library", "path", path, "books", lib.Len())
		fmt.Fprintln(stdout, path)
		return nil
	})
}

// ImportCmd represents the import command
type ImportCmd struct {
	File string `arg:"" help:"Snapshot file written by export" type:"existingfile"`
}

func (i *ImportCmd) Run() error {
	data, err := os.ReadFile(i.File)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	return withLibrary(func(lib *libraryHandle) error {
		if err := lib.Import(data); err != nil {
			return fmt.Errorf("failed to import %s: %w", i.File, err)
		}
		return publishLibrary(lib.Books())
	})
}

// ClearCmd represents the clear command
type ClearCmd struct {
	Yes bool `short:"y" help:"Confirm removing every book"`
}

func (c *ClearCmd) Run() error {
	if !c.Yes {
		return errConfirmationRequired
	}

	return withLibrary(func(lib *libraryHandle) error {
		if err := lib.Clear(); err != nil {
			return err
		}
		// An empty stored library is reseeded when the store opens
		slog.Warn("Library cleared; the sample books will be restored the next time the library is opened. Import a snapshot to replace them.")
		return nil
	})
}
