// Package render consumes the annotation index plus per-exercise readme.yml
// outlines and emits README.md files.
package render

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Outline is a parsed readme.yml.
type Outline struct {
	Title       string        `yaml:"title"`
	Summary     string        `yaml:"summary"`
	Description string        `yaml:"description"`
	Category    string        `yaml:"category"`
	Namespace   string        `yaml:"namespace"`
	TOC         *bool         `yaml:"toc"` // nil = use configured default
	Outline     []OutlineItem `yaml:"outline"`
}

// OutlineItem is one section of the outline. Exactly one field may be set.
type OutlineItem struct {
	Unsafe  string `yaml:"unsafe,omitempty"`  // annotation id
	Heading string `yaml:"heading,omitempty"` // H2 text
	Text    string `yaml:"text,omitempty"`    // raw markdown
	Image   string `yaml:"image,omitempty"`   // path relative to the exercise dir
	HTTP    string `yaml:"http,omitempty"`    // .http file relative to the exercise dir
}

// kind returns the item's discriminator, or an error when the item sets
// zero or several fields.
func (it *OutlineItem) kind() (string, error) {
	var kinds []string
	if it.Unsafe != "" {
		kinds = append(kinds, "unsafe")
	}
	if it.Heading != "" {
		kinds = append(kinds, "heading")
	}
	if it.Text != "" {
		kinds = append(kinds, "text")
	}
	if it.Image != "" {
		kinds = append(kinds, "image")
	}
	if it.HTTP != "" {
		kinds = append(kinds, "http")
	}
	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("outline item sets none of unsafe/heading/text/image/http")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("outline item sets %v; exactly one is allowed", kinds)
	}
}

// LoadOutline reads and validates a readme.yml.
func LoadOutline(path string) (*Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read outline: %w", err)
	}

	var o Outline
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("%s: failed to parse outline: %w", path, err)
	}

	if o.Title == "" {
		return nil, fmt.Errorf("%s: outline is missing a title", path)
	}
	for i := range o.Outline {
		if _, err := o.Outline[i].kind(); err != nil {
			return nil, fmt.Errorf("%s: item %d: %w", path, i+1, err)
		}
	}

	return &o, nil
}
