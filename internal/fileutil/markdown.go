package fileutil

import (
	"fmt"
	"strings"
)

// MarkdownBody builds the body of a note, block by block
type MarkdownBody struct {
	content strings.Builder
}

// NewMarkdownBody creates an empty body
func NewMarkdownBody() *MarkdownBody {
	return &MarkdownBody{}
}

// AddHeading adds a heading of the given level
func (mb *MarkdownBody) AddHeading(level int, text string) *MarkdownBody {
	if text == "" {
		return mb
	}
	level = min(max(level, 1), 6)
	fmt.Fprintf(&mb.content, "%s %s\n\n", strings.Repeat("#", level), text)
	return mb
}

// AddParagraph adds a paragraph of text
func (mb *MarkdownBody) AddParagraph(text string) *MarkdownBody {
	text = strings.TrimSpace(text)
	if text == "" {
		return mb
	}
	mb.content.WriteString(text)
	mb.content.WriteString("\n\n")
	return mb
}

// AddImage adds an embedded image
func (mb *MarkdownBody) AddImage(imageURL string) *MarkdownBody {
	if imageURL == "" {
		return mb
	}
	fmt.Fprintf(&mb.content, "![](%s)\n\n", imageURL)
	return mb
}

// AddCallout adds a collapsed Obsidian callout
func (mb *MarkdownBody) AddCallout(calloutType, title, content string) *MarkdownBody {
	content = strings.TrimSpace(content)
	if content == "" {
		return mb
	}

	if title != "" {
		fmt.Fprintf(&mb.content, ">[!%s]- %s\n", calloutType, title)
	} else {
		fmt.Fprintf(&mb.content, ">[!%s]\n", calloutType)
	}
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&mb.content, "> %s\n", line)
	}
	mb.content.WriteString("\n")
	return mb
}

// AddExternalLink adds a markdown link on its own line
func (mb *MarkdownBody) AddExternalLink(title, url string) *MarkdownBody {
	if url == "" {
		return mb
	}
	fmt.Fprintf(&mb.content, "[%s](%s)\n\n", title, url)
	return mb
}

// String returns the body with trailing blank lines removed
func (mb *MarkdownBody) String() string {
	return strings.TrimRight(mb.content.String(), "\n")
}
