package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookiebuddy/internal/cmdutil"
	"github.com/lepinkainen/bookiebuddy/internal/config"
	"github.com/lepinkainen/bookiebuddy/internal/goodreads"
	"github.com/lepinkainen/bookiebuddy/internal/obsidian"
)

// SearchCmd represents the search command
type SearchCmd struct {
	Query string `arg:"" help:"Title, author or ISBN to look for"`
	JSON  bool   `help:"Print the results as JSON"`
}

func (s *SearchCmd) Run(ctx context.Context) error {
	volumes, fromCache, err := newCatalog().Search(ctx, s.Query)
	if err != nil {
		return fmt.Errorf("failed to search Google Books: %w", err)
	}
	slog.Debug("Catalog search", "query", s.Query, "results", len(volumes), "from_cache", fromCache)

	if s.JSON {
		return printJSON(volumes)
	}

	if len(volumes) == 0 {
		fmt.Fprintln(stdout, "No results.")
		return nil
	}
	for _, v := range volumes {
		renderVolumeLine(stdout, v)
	}
	return nil
}

// NotesCmd represents the notes command
type NotesCmd struct {
	Dir string `short:"d" help:"Directory to write notes to (defaults to notes.dir)"`
}

func (n *NotesCmd) Run() error {
	dir, err := cmdutil.ResolveOutputDir(n.Dir, config.KeyNotesDir, "notes")
	if err != nil {
		return err
	}

	return withLibrary(func(lib *libraryHandle) error {
		written, skipped := 0, 0
		for _, b := range lib.Books() {
			ok, err := obsidian.WriteBookNote(b, dir, config.OverwriteFiles)
			if err != nil {
				return fmt.Errorf("failed to write note for %q: %w", b.Title, err)
			}
			if ok {
				written++
			} else {
				skipped++
			}
		}

		slog.Info("Wrote book notes", "dir", dir, "written", written, "skipped", skipped)
		return nil
	})
}

// GoodreadsCmd represents the goodreads import command
type GoodreadsCmd struct {
	Input string `short:"f" help:"Path to Goodreads library export CSV file"`
}

func (g *GoodreadsCmd) Run() error {
	// Read from config if value not provided via flag
	input := g.Input
	if input == "" {
		input = config.GoodreadsCSV()
	}
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input flag or goodreads.csvfile in config)")
	}

	drafts, skipped, err := goodreads.ParseFile(input)
	if err != nil {
		return fmt.Errorf("failed to parse Goodreads export: %w", err)
	}
	if skipped > 0 {
		slog.Warn("Skipped unreadable Goodreads rows", "count", skipped)
	}

	return withLibrary(func(lib *libraryHandle) error {
		added, err := lib.AddMany(drafts)
		if err != nil {
			return fmt.Errorf("failed to add Goodreads books: %w", err)
		}
		slog.Info("Imported Goodreads export", "file", input, "added", len(added), "skipped", skipped)
		return publishLibrary(lib.Books())
	})
}
