package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lepinkainen/bookiebuddy/internal/catalog"
	bberrors "github.com/lepinkainen/bookiebuddy/internal/errors"
	"github.com/lepinkainen/bookiebuddy/internal/library"
	"github.com/lepinkainen/bookiebuddy/internal/tui"
)

// ListCmd represents the list command
type ListCmd struct {
	Query     string  `short:"q" help:"Only books whose title or author contains this text"`
	Genre     string  `short:"g" help:"Only books in this genre ('all' for any genre)"`
	MinRating float64 `help:"Only books rated at least this"`
	Sort      string  `help:"Sort order: recent, highest-rated or alphabetical" default:"recent" enum:"recent,highest-rated,alphabetical"`
	JSON      bool    `help:"Print the books as JSON"`
}

func (l *ListCmd) Run() error {
	return withLibrary(func(lib *libraryHandle) error {
		filter := library.Filter{
			Query:     l.Query,
			Genre:     l.Genre,
			MinRating: l.MinRating,
			Sort:      library.ParseSortOrder(l.Sort),
		}
		books := filter.Apply(lib.Books())

		if l.JSON {
			return printJSON(books)
		}

		if len(books) == 0 {
			fmt.Fprintln(stdout, "No books found.")
			return nil
		}
		for _, b := range books {
			renderBookLine(stdout, b)
		}
		return nil
	})
}

// ShowCmd represents the show command
type ShowCmd struct {
	ID   string `arg:"" help:"Book id"`
	JSON bool   `help:"Print the book as JSON"`
}

func (s *ShowCmd) Run() error {
	return withLibrary(func(lib *libraryHandle) error {
		book, ok := lib.Get(s.ID)
		if !ok {
			return bberrors.NewNotFoundError(s.ID)
		}
		if s.JSON {
			return printJSON(book)
		}
		renderBookDetail(stdout, book)
		return nil
	})
}

// AddCmd represents the add command
type AddCmd struct {
	Title         string  `short:"t" help:"Book title"`
	Author        string  `short:"a" help:"Book author"`
	Rating        float64 `short:"r" help:"Rating from 0 to 5"`
	Genre         string  `short:"g" help:"Genre"`
	Review        string  `help:"Review text (HTML allowed)"`
	Cover         string  `help:"Cover image URL"`
	Finished      string  `help:"Date finished (YYYY-MM-DD)"`
	Search        string  `short:"s" help:"Pre-fill the book from a Google Books search" xor:"source"`
	Volume        string  `help:"Pre-fill the book from a Google Books volume id" xor:"source"`
	NoInteractive bool    `help:"Pick the first search result instead of showing a picker"`
}

func (a *AddCmd) Run(ctx context.Context) error {
	finished, err := parseFinished(a.Finished)
	if err != nil {
		return err
	}

	draft := library.Draft{
		Title:         a.Title,
		Author:        a.Author,
		Rating:        a.Rating,
		Genre:         a.Genre,
		ReviewHTML:    a.Review,
		CoverImageURL: a.Cover,
		DateFinished:  finished,
	}

	switch {
	case a.Search != "":
		draft, err = a.prefill(ctx, draft)
	case a.Volume != "":
		draft, err = a.prefillVolume(ctx, draft)
	}
	if err != nil {
		return err
	}

	return withLibrary(func(lib *libraryHandle) error {
		book, err := lib.Add(draft)
		if err != nil {
			return fmt.Errorf("failed to add book: %w", err)
		}
		fmt.Fprintln(stdout, book.ID)
		return nil
	})
}

// prefill fills draft from the chosen search result; explicit flags win over catalog values
func (a *AddCmd) prefill(ctx context.Context, draft library.Draft) (library.Draft, error) {
	volumes, fromCache, err := newCatalog().Search(ctx, a.Search)
	if err != nil {
		return draft, fmt.Errorf("failed to search Google Books: %w", err)
	}
	slog.Debug("Catalog search", "query", a.Search, "results", len(volumes), "from_cache", fromCache)

	result, err := selectVolume(a.Search, volumes, !a.NoInteractive)
	if err != nil {
		return draft, err
	}
	if result.Action != tui.ActionSelected || result.Selection == nil {
		slog.Info("No catalog match selected, using the given details", "query", a.Search)
		return draft, nil
	}

	return a.keepFlags(catalog.ToDraft(*result.Selection, draft)), nil
}

func (a *AddCmd) prefillVolume(ctx context.Context, draft library.Draft) (library.Draft, error) {
	volume, fromCache, err := newCatalog().Volume(ctx, a.Volume)
	if err != nil {
		return draft, fmt.Errorf("failed to fetch Google Books volume: %w", err)
	}
	slog.Debug("Catalog volume", "id", a.Volume, "from_cache", fromCache)
	return a.keepFlags(catalog.ToDraft(*volume, draft)), nil
}

func (a *AddCmd) keepFlags(filled library.Draft) library.Draft {
	if a.Title != "" {
		filled.Title = a.Title
	}
	if a.Author != "" {
		filled.Author = a.Author
	}
	if a.Genre != "" {
		filled.Genre = a.Genre
	}
	if a.Cover != "" {
		filled.CoverImageURL = a.Cover
	}
	return filled
}

// UpdateCmd represents the update command. Empty flags keep the current value.
type UpdateCmd struct {
	ID         string  `arg:"" help:"Book id"`
	Title      string  `short:"t" help:"New title"`
	Author     string  `short:"a" help:"New author"`
	Rating     float64 `short:"r" help:"New rating from 0 to 5 (negative keeps the current rating)" default:"-1"`
	Genre      string  `short:"g" help:"New genre"`
	Review     string  `help:"New review text (HTML allowed)"`
	Cover      string  `help:"New cover image URL"`
	Finished   string  `help:"New date finished (YYYY-MM-DD)"`
	Unfinished bool    `help:"Clear the date finished"`
}

func (u *UpdateCmd) Run() error {
	finished, err := parseFinished(u.Finished)
	if err != nil {
		return err
	}

	return withLibrary(func(lib *libraryHandle) error {
		book, ok := lib.Get(u.ID)
		if !ok {
			return bberrors.NewNotFoundError(u.ID)
		}

		if u.Title != "" {
			book.Title = u.Title
		}
		if u.Author != "" {
			book.Author = u.Author
		}
		if u.Rating >= 0 {
			book.Rating = u.Rating
		}
		if u.Genre != "" {
			book.Genre = u.Genre
		}
		if u.Review != "" {
			book.ReviewHTML = u.Review
		}
		if u.Cover != "" {
			book.CoverImageURL = u.Cover
		}
		switch {
		case u.Unfinished:
			book.DateFinished = ""
		case finished != "":
			book.DateFinished = finished
		}

		if _, err := lib.Update(book); err != nil {
			return fmt.Errorf("failed to update book: %w", err)
		}
		return nil
	})
}

// DeleteCmd represents the delete command
type DeleteCmd struct {
	ID string `arg:"" help:"Book id"`
}

func (d *DeleteCmd) Run() error {
	return withLibrary(func(lib *libraryHandle) error {
		if err := lib.Delete(d.ID); err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		return nil
	})
}

// GenresCmd represents the genres command
type GenresCmd struct{}

func (g *GenresCmd) Run() error {
	return withLibrary(func(lib *libraryHandle) error {
		for _, genre := range library.MergeGenres(lib.Books()) {
			fmt.Fprintln(stdout, genre)
		}
		return nil
	})
}

// parseFinished accepts a calendar date or a full ISO-8601 timestamp
func parseFinished(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return library.FormatTimestamp(t), nil
	}
	if t, ok := library.ParseTimestamp(value); ok {
		return library.FormatTimestamp(t), nil
	}
	return "", fmt.Errorf("invalid finish date %q, use YYYY-MM-DD", value)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}
