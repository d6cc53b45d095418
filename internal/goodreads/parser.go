// Package goodreads converts a Goodreads library export into library drafts.
package goodreads

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lepinkainen/bookiebuddy/internal/csvutil"
	"github.com/lepinkainen/bookiebuddy/internal/library"
)

// MinColumns is the width of a Goodreads library export row
const MinColumns = 24

// Column positions in the Goodreads export
const (
	colTitle             = 1
	colAuthor            = 2
	colAdditionalAuthors = 4
	colMyRating          = 7
	colDateRead          = 14
	colBookshelves       = 16
	colExclusiveShelf    = 18
	colMyReview          = 19
)

const dateReadLayout = "2006/01/02"

// exclusiveShelves are reading states rather than genres
var exclusiveShelves = map[string]bool{
	"read":              true,
	"to-read":           true,
	"currently-reading": true,
}

var shelfTitle = cases.Title(language.English)

// ParseFile reads a Goodreads export. Rows that cannot be converted are skipped and counted.
func ParseFile(path string) ([]library.Draft, int, error) {
	result, err := csvutil.ProcessCSV(path, ParseRecord, csvutil.ProcessorOptions{SkipInvalid: true})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Skipped, nil
}

// ParseRecord converts one export row into a draft
func ParseRecord(record []string) (library.Draft, error) {
	if len(record) < MinColumns {
		return library.Draft{}, fmt.Errorf("record has %d columns, want at least %d", len(record), MinColumns)
	}

	title := strings.TrimSpace(record[colTitle])
	if title == "" {
		return library.Draft{}, fmt.Errorf("record has no title")
	}

	rating, err := parseRating(record[colMyRating])
	if err != nil {
		return library.Draft{}, fmt.Errorf("%q: %w", title, err)
	}

	finished, err := parseDateRead(record[colDateRead])
	if err != nil {
		return library.Draft{}, fmt.Errorf("%q: %w", title, err)
	}

	return library.Draft{
		Title:        title,
		Author:       joinAuthors(record[colAuthor], record[colAdditionalAuthors]),
		Rating:       rating,
		ReviewHTML:   strings.TrimSpace(record[colMyReview]),
		DateFinished: finished,
		Genre:        genreFromShelves(record[colBookshelves], record[colExclusiveShelf]),
	}, nil
}

func parseRating(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q", value)
	}
	if rating < 0 || rating > 5 {
		return 0, fmt.Errorf("rating %v out of range", rating)
	}
	return rating, nil
}

// parseDateRead turns YYYY/MM/DD into an ISO timestamp at UTC midnight
func parseDateRead(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	t, err := time.Parse(dateReadLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid date read %q", value)
	}
	return library.FormatTimestamp(t), nil
}

func joinAuthors(primary, additional string) string {
	authors := []string{}
	seen := map[string]bool{}
	for _, name := range append([]string{primary}, strings.Split(additional, ",")...) {
		name = strings.Join(strings.Fields(name), " ")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		authors = append(authors, name)
	}
	return strings.Join(authors, ", ")
}

// genreFromShelves picks the first shelf that is not a reading state, e.g. "science-fiction" → "Science Fiction"
func genreFromShelves(shelves, exclusive string) string {
	exclusive = strings.TrimSpace(exclusive)
	for _, shelf := range strings.Split(shelves, ",") {
		shelf = strings.TrimSpace(shelf)
		if shelf == "" || exclusiveShelves[shelf] || shelf == exclusive {
			continue
		}
		return shelfTitle.String(strings.ReplaceAll(shelf, "-", " "))
	}
	return ""
}
