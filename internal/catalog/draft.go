package catalog

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/bookiebuddy/internal/library"
)

// ToDraft pre-fills a draft from a volume. Fields the volume lacks keep the values in base.
func ToDraft(v Volume, base library.Draft) library.Draft {
	info := v.VolumeInfo
	d := base

	d.Title = info.Title
	d.Author = strings.Join(info.Authors, ", ")
	if thumb := v.Thumbnail(); thumb != "" {
		d.CoverImageURL = thumb
	}
	if len(info.Categories) > 0 {
		d.Genre = info.Categories[0]
	}
	d.GoogleBooksID = v.ID
	d.GoogleBooksDescription = Summary(v)
	return d
}

// Summary picks the first available description: the volume description, the search
// snippet, the subtitle, or a sentence built from the categories. It is "" when none apply.
func Summary(v Volume) string {
	info := v.VolumeInfo
	if s := strings.TrimSpace(info.Description); s != "" {
		return s
	}
	if v.SearchInfo != nil {
		if s := strings.TrimSpace(v.SearchInfo.TextSnippet); s != "" {
			return s
		}
	}
	if s := strings.TrimSpace(info.Subtitle); s != "" {
		return s
	}
	if len(info.Categories) == 0 {
		return ""
	}

	authors := strings.Join(info.Authors, ", ")
	if authors == "" {
		authors = "unknown author"
	}
	return fmt.Sprintf("Explore %s with this title from %s.", strings.Join(info.Categories, ", "), authors)
}

// Label is a one-line description of a volume for pickers and listings
func Label(v Volume) string {
	info := v.VolumeInfo
	label := info.Title
	if len(info.Authors) > 0 {
		label += " by " + strings.Join(info.Authors, ", ")
	}
	if len(info.PublishedDate) >= 4 {
		label += " (" + info.PublishedDate[:4] + ")"
	}
	return label
}
