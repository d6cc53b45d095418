package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lepinkainen/bookiebuddy/internal/catalog"
	"github.com/lepinkainen/bookiebuddy/internal/library"
	"github.com/lepinkainen/bookiebuddy/internal/obsidian"
	"github.com/lepinkainen/bookiebuddy/internal/stats"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ratingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// stars renders a 0-5 rating, rounding to whole stars
func stars(rating float64) string {
	full := int(math.Round(math.Max(0, math.Min(5, rating))))
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
}

func day(ts string) string {
	if t, ok := library.ParseTimestamp(ts); ok {
		return t.UTC().Format("2006-01-02")
	}
	return ts
}

func renderBookLine(w io.Writer, b library.Book) {
	line := fmt.Sprintf("%s by %s  %s", labelStyle.Render(b.Title), b.Author, ratingStyle.Render(stars(b.Rating)))
	if b.Genre != "" {
		line += "  [" + b.Genre + "]"
	}
	if b.Finished() {
		line += "  finished " + day(b.DateFinished)
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "  "+mutedStyle.Render(b.ID))
}

func renderBookDetail(w io.Writer, b library.Book) {
	fmt.Fprintln(w, headingStyle.Render(b.Title))

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label+":"), value)
	}

	field("ID", b.ID)
	field("Author", b.Author)
	field("Rating", fmt.Sprintf("%s (%.1f)", ratingStyle.Render(stars(b.Rating)), b.Rating))
	field("Genre", b.Genre)
	if b.Finished() {
		field("Finished", day(b.DateFinished))
	} else {
		field("Finished", mutedStyle.Render("not yet"))
	}
	field("Added", day(b.CreatedAt))
	field("Updated", day(b.UpdatedAt))
	field("Cover", b.CoverImageURL)
	field("Google Books", b.GoogleBooksID)

	if b.ReviewHTML != "" {
		review, err := obsidian.ReviewMarkdown(b.ReviewHTML)
		if err != nil {
			review = b.ReviewHTML
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("Review"))
		fmt.Fprintln(w, review)
	}
	if b.GoogleBooksDescription != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("About"))
		fmt.Fprintln(w, b.GoogleBooksDescription)
	}
}

func renderStats(w io.Writer, s stats.Stats) {
	fmt.Fprintln(w, headingStyle.Render("Reading statistics"))
	fmt.Fprintf(w, "%s %d\n", labelStyle.Render("Total books:"), s.TotalBooks)
	fmt.Fprintf(w, "%s %.1f\n", labelStyle.Render("Average rating:"), s.AverageRating)
	fmt.Fprintf(w, "%s %d day(s)\n", labelStyle.Render("Current streak:"), s.CurrentStreak)

	if len(s.BooksByGenre) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("Books by genre"))
		for _, g := range s.BooksByGenre {
			fmt.Fprintf(w, "  %-20s %d\n", g.Genre, g.Count)
		}
	}

	if len(s.ReadingTimeline) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, labelStyle.Render("Finished per month"))
		for _, p := range s.ReadingTimeline {
			fmt.Fprintf(w, "  %s  %s %d\n", p.Period, strings.Repeat("▇", p.Count), p.Count)
		}
	}
}

func renderVolumeLine(w io.Writer, v catalog.Volume) {
	fmt.Fprintln(w, labelStyle.Render(catalog.Label(v)))
	meta := v.ID
	if len(v.VolumeInfo.Categories) > 0 {
		meta += "  " + strings.Join(v.VolumeInfo.Categories, ", ")
	}
	fmt.Fprintln(w, "  "+mutedStyle.Render(meta))
}
