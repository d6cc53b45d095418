// Package library owns the user's book collection and keeps it consistent
// with the persistent key-value store.
package library

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersion gates whether a persisted or imported payload can be adopted
	SchemaVersion = 1

	// DefaultKey is the key the library payload is stored under
	DefaultKey = "bookiebuddy_books"

	// timestampLayout matches the millisecond UTC form of ISO-8601 used in exports
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Book is a single library entry
type Book struct {
	ID                     string  `json:"id"`
	Title                  string  `json:"title" validate:"required"`
	Author                 string  `json:"author" validate:"required"`
	CoverImageURL          string  `json:"coverImageUrl"`
	Rating                 float64 `json:"rating"`
	ReviewHTML             string  `json:"reviewHtml"`
	DateFinished           string  `json:"dateFinished,omitempty"`
	Genre                  string  `json:"genre"`
	CreatedAt              string  `json:"createdAt"`
	UpdatedAt              string  `json:"updatedAt"`
	GoogleBooksID          string  `json:"googleBooksId,omitempty"`
	GoogleBooksDescription string  `json:"googleBooksDescription,omitempty"`
}

// Draft is the caller-supplied part of a Book, used to create new entries
type Draft struct {
	Title                  string  `json:"title" validate:"required"`
	Author                 string  `json:"author" validate:"required"`
	CoverImageURL          string  `json:"coverImageUrl"`
	Rating                 float64 `json:"rating"`
	ReviewHTML             string  `json:"reviewHtml"`
	DateFinished           string  `json:"dateFinished,omitempty"`
	Genre                  string  `json:"genre"`
	GoogleBooksID          string  `json:"googleBooksId,omitempty"`
	GoogleBooksDescription string  `json:"googleBooksDescription,omitempty"`
}

// Payload is the persisted and exported envelope
type Payload struct {
	Version int    `json:"version"`
	Books   []Book `json:"books"`
}

// Draft returns the editable fields of b
func (b Book) Draft() Draft {
	return Draft{
		Title:                  b.Title,
		Author:                 b.Author,
		CoverImageURL:          b.CoverImageURL,
		Rating:                 b.Rating,
		ReviewHTML:             b.ReviewHTML,
		DateFinished:           b.DateFinished,
		Genre:                  b.Genre,
		GoogleBooksID:          b.GoogleBooksID,
		GoogleBooksDescription: b.GoogleBooksDescription,
	}
}

// Apply copies the draft's fields onto b, leaving identity and timestamps alone
func (d Draft) Apply(b Book) Book {
	b.Title = d.Title
	b.Author = d.Author
	b.CoverImageURL = d.CoverImageURL
	b.Rating = d.Rating
	b.ReviewHTML = d.ReviewHTML
	b.DateFinished = d.DateFinished
	b.Genre = d.Genre
	b.GoogleBooksID = d.GoogleBooksID
	b.GoogleBooksDescription = d.GoogleBooksDescription
	return b
}

// Finished reports whether the book has a finish date
func (b Book) Finished() bool {
	return b.DateFinished != ""
}

func (d Draft) trimmed() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	d.Genre = strings.TrimSpace(d.Genre)
	d.DateFinished = strings.TrimSpace(d.DateFinished)
	return d
}

// NewID returns a random UUIDv4 string
func NewID() string {
	return uuid.NewString()
}

// FormatTimestamp renders t as a UTC ISO-8601 timestamp with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses an ISO-8601 timestamp, with or without fractional seconds
func ParseTimestamp(value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// latestTimestamp returns the candidate with the latest instant.
// Unparseable candidates are ignored; if none parse, the first is returned.
func latestTimestamp(first string, rest ...string) string {
	best := first
	bestTime, bestOK := ParseTimestamp(first)
	for _, candidate := range rest {
		t, ok := ParseTimestamp(candidate)
		if !ok {
			continue
		}
		if !bestOK || t.After(bestTime) {
			best, bestTime, bestOK = candidate, t, true
		}
	}
	return best
}

func cloneBooks(books []Book) []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

func indexOf(books []Book, id string) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}
