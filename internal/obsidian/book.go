package obsidian

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/lepinkainen/bookiebuddy/internal/fileutil"
	"github.com/lepinkainen/bookiebuddy/internal/library"
)

// BookTag is carried by every book note
const BookTag = "book"

// BookTags returns the generated tags for b
func BookTags(b library.Book) []string {
	ts := NewTagSet()
	ts.Add(BookTag, GenreTag(b.Genre))
	if b.Finished() {
		ts.Add("status/read")
	} else {
		ts.Add("status/reading")
	}
	return ts.Sorted()
}

// BookNote renders b as a note. The review is converted from HTML to markdown.
func BookNote(b library.Book) (*Note, error) {
	fm := NewFrontmatter()
	fm.Set("title", b.Title)
	fm.Set("author", b.Author)
	fm.Set("bookiebuddy_id", b.ID)
	fm.SetIf("rating", b.Rating)
	fm.SetIf("genre", b.Genre)
	fm.SetIf("date_finished", datePart(b.DateFinished))
	fm.SetIf("created", b.CreatedAt)
	fm.SetIf("updated", b.UpdatedAt)
	fm.SetIf("google_books_id", b.GoogleBooksID)
	fm.SetIf("cover", b.CoverImageURL)
	fm.Set("tags", BookTags(b))

	review, err := ReviewMarkdown(b.ReviewHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to convert review for %q: %w", b.Title, err)
	}

	body := fileutil.NewMarkdownBody().
		AddImage(b.CoverImageURL).
		AddHeading(2, reviewHeading(review)).
		AddParagraph(review).
		AddCallout("info", "About", b.GoogleBooksDescription)
	if b.GoogleBooksID != "" {
		body.AddExternalLink("Google Books", "https://books.google.com/books?id="+b.GoogleBooksID)
	}

	return &Note{Frontmatter: fm, Body: body.String()}, nil
}

// ReviewMarkdown converts a review's HTML to markdown
func ReviewMarkdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}

// WriteBookNote writes the note for b into dir and reports whether a file was written.
// An existing note is left alone unless overwrite is set; when it is replaced, tags the
// user added by hand are kept.
func WriteBookNote(b library.Book, dir string, overwrite bool) (bool, error) {
	path := fileutil.GetMarkdownFilePath(b.Title, dir)

	exists := fileutil.FileExists(path)
	if exists && !overwrite {
		slog.Debug("Note already exists, skipping", "path", path)
		return false, nil
	}

	note, err := BookNote(b)
	if err != nil {
		return false, err
	}

	if exists {
		if content, err := os.ReadFile(path); err == nil {
			if existing, err := ParseMarkdown(content); err == nil {
				note.Frontmatter.Set("tags", MergeTags(userTags(existing.Frontmatter.GetStringArray("tags")), BookTags(b)))
			} else {
				slog.Warn("Could not parse existing note, replacing it", "path", path, "error", err)
			}
		}
	}

	data, err := note.Build()
	if err != nil {
		return false, err
	}
	return fileutil.WriteFileWithOverwrite(path, data, 0644, true)
}

// userTags drops the tags this package generates so stale genre or status tags are not kept
func userTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if strings.HasPrefix(tag, "genre/") || strings.HasPrefix(tag, "status/") {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func reviewHeading(review string) string {
	if review == "" {
		return ""
	}
	return "Review"
}

func datePart(ts string) string {
	if len(ts) < len("2006-01-02") {
		return ts
	}
	return ts[:len("2006-01-02")]
}
