package library

import (
	"cmp"
	"slices"
	"strings"
)

// SortOrder selects how a filtered list is ordered
type SortOrder string

const (
	SortRecent       SortOrder = "recent"
	SortHighestRated SortOrder = "highest-rated"
	SortAlphabetical SortOrder = "alphabetical"
)

// AllGenres matches every genre in a Filter
const AllGenres = "all"

// DefaultGenres are suggested alongside the genres already in the library
var DefaultGenres = []string{
	"Fantasy",
	"Science Fiction",
	"Adventure",
	"Mystery",
	"Nonfiction",
	"Sports",
	"Contemporary",
	"Historical Fiction",
	"Graphic Novel",
}

// Filter narrows and orders a snapshot of books
type Filter struct {
	Query     string
	Genre     string
	MinRating float64
	Sort      SortOrder
}

// Apply returns the books matching f in the requested order. The input is not modified.
func (f Filter) Apply(books []Book) []Book {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Book, 0, len(books))
	for _, b := range books {
		if query != "" &&
			!strings.Contains(strings.ToLower(b.Title), query) &&
			!strings.Contains(strings.ToLower(b.Author), query) {
			continue
		}
		if f.Genre != "" && f.Genre != AllGenres && b.Genre != f.Genre {
			continue
		}
		if b.Rating < f.MinRating {
			continue
		}
		out = append(out, b)
	}

	switch f.Sort {
	case SortHighestRated:
		slices.SortStableFunc(out, func(a, b Book) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case SortAlphabetical:
		slices.SortStableFunc(out, func(a, b Book) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	default:
		slices.SortStableFunc(out, func(a, b Book) int {
			return compareCreated(b, a)
		})
	}
	return out
}

// compareCreated orders by createdAt instant, falling back to the raw string
func compareCreated(a, b Book) int {
	at, aok := ParseTimestamp(a.CreatedAt)
	bt, bok := ParseTimestamp(b.CreatedAt)
	if aok && bok {
		return at.Compare(bt)
	}
	return cmp.Compare(a.CreatedAt, b.CreatedAt)
}

// ParseSortOrder maps a user-supplied value to a SortOrder, defaulting to SortRecent
func ParseSortOrder(value string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case SortHighestRated:
		return SortHighestRated
	case SortAlphabetical:
		return SortAlphabetical
	default:
		return SortRecent
	}
}

// Genres returns the distinct non-empty genres in books, sorted alphabetically
func Genres(books []Book) []string {
	seen := make(map[string]bool)
	var genres []string
	for _, b := range books {
		g := strings.TrimSpace(b.Genre)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}
	slices.Sort(genres)
	return genres
}

// MergeGenres combines DefaultGenres with the library's own genres, sorted and de-duplicated
func MergeGenres(books []Book) []string {
	merged := slices.Concat(DefaultGenres, Genres(books))
	slices.Sort(merged)
	return slices.Compact(merged)
}
