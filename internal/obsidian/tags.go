package obsidian

import (
	"regexp"
	"slices"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hyphenRun     = regexp.MustCompile(`-+`)
	tagUnsafe     = regexp.MustCompile(`[^\p{L}\p{N}/_-]`)
)

// NormalizeTag turns free text into an Obsidian tag.
// Case is kept, "&" becomes "and", whitespace becomes "-" and "/" nests.
func NormalizeTag(tag string) string {
	tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return ""
	}

	tag = strings.ReplaceAll(tag, "&", " and ")
	tag = whitespaceRun.ReplaceAllString(tag, "-")
	tag = tagUnsafe.ReplaceAllString(tag, "")
	tag = hyphenRun.ReplaceAllString(tag, "-")
	return strings.Trim(tag, "-/")
}

// GenreTag returns the genre/<name> tag for genre, or "" when genre is blank
func GenreTag(genre string) string {
	name := NormalizeTag(strings.ReplaceAll(genre, "/", " "))
	if name == "" {
		return ""
	}
	return "genre/" + name
}

// TagSet collects normalized, de-duplicated tags
type TagSet struct {
	tags map[string]bool
}

// NewTagSet creates an empty TagSet
func NewTagSet() *TagSet {
	return &TagSet{tags: make(map[string]bool)}
}

// Add normalizes and adds each tag, ignoring empty results
func (ts *TagSet) Add(tags ...string) {
	for _, tag := range tags {
		if normalized := NormalizeTag(tag); normalized != "" {
			ts.tags[normalized] = true
		}
	}
}

// Sorted returns the tags in sorted order
func (ts *TagSet) Sorted() []string {
	out := make([]string, 0, len(ts.tags))
	for tag := range ts.tags {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// MergeTags combines both lists into one sorted, normalized set
func MergeTags(existing, added []string) []string {
	ts := NewTagSet()
	ts.Add(existing...)
	ts.Add(added...)
	return ts.Sorted()
}

// TagsFromAny extracts strings from a decoded YAML value ([]string or []any)
func TagsFromAny(val any) []string {
	switch v := val.(type) {
	case []string:
		return slices.DeleteFunc(slices.Clone(v), func(s string) bool { return s == "" })
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
