// Package obsidian renders library books as Obsidian-flavoured markdown notes.
package obsidian

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Note is a markdown document with YAML frontmatter
type Note struct {
	Frontmatter *Frontmatter
	Body        string
}

// Frontmatter holds YAML fields and serializes them with sorted keys
type Frontmatter struct {
	fields map[string]any
}

// NewFrontmatter creates an empty Frontmatter
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{fields: make(map[string]any)}
}

// ParseMarkdown splits content into frontmatter and body.
// Content without a closed frontmatter block is all body.
func ParseMarkdown(content []byte) (*Note, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	if !strings.HasPrefix(text, "---\n") {
		return &Note{Frontmatter: NewFrontmatter(), Body: text}, nil
	}

	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		if !strings.HasSuffix(rest, "\n---") {
			return &Note{Frontmatter: NewFrontmatter(), Body: text}, nil
		}
		end = len(rest) - len("\n---")
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &data); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	fm := NewFrontmatter()
	for k, v := range data {
		fm.Set(k, v)
	}

	body := ""
	if start := end + len("\n---\n"); start < len(rest) {
		body = strings.TrimPrefix(rest[start:], "\n")
	}
	return &Note{Frontmatter: fm, Body: body}, nil
}

// Build renders the note; an empty frontmatter is omitted
func (n *Note) Build() ([]byte, error) {
	var buf bytes.Buffer

	if n.Frontmatter != nil && len(n.Frontmatter.fields) > 0 {
		data, err := yaml.Marshal(n.Frontmatter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(data)
		buf.WriteString("---\n\n")
	}

	buf.WriteString(strings.TrimSpace(n.Body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Set stores value under key
func (f *Frontmatter) Set(key string, value any) {
	f.fields[key] = value
}

// SetIf stores value only when it is not the zero value of its type
func (f *Frontmatter) SetIf(key string, value any) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return
		}
	case float64:
		if v == 0 {
			return
		}
	case []string:
		if len(v) == 0 {
			return
		}
	case nil:
		return
	}
	f.Set(key, value)
}

// Get returns the raw value for key
func (f *Frontmatter) Get(key string) (any, bool) {
	v, ok := f.fields[key]
	return v, ok
}

// GetString returns the value for key if it is a string
func (f *Frontmatter) GetString(key string) string {
	s, _ := f.fields[key].(string)
	return s
}

// GetStringArray returns the value for key as a list of strings
func (f *Frontmatter) GetStringArray(key string) []string {
	return TagsFromAny(f.fields[key])
}

// Keys returns the field names in sorted order
func (f *Frontmatter) Keys() []string {
	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// MarshalYAML writes fields in key order, with tags as a flow sequence
func (f *Frontmatter) MarshalYAML() (any, error) {
	keys := f.Keys()
	node := &yaml.Node{Kind: yaml.MappingNode, Content: make([]*yaml.Node, 0, len(keys)*2)}

	for _, key := range keys {
		value := &yaml.Node{}
		if key == "tags" {
			value.Kind = yaml.SequenceNode
			value.Style = yaml.FlowStyle
			for _, tag := range TagsFromAny(f.fields[key]) {
				value.Content = append(value.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: tag})
			}
		} else if err := value.Encode(f.fields[key]); err != nil {
			return nil, err
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}
	return node, nil
}
