package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ucdocs/internal/index"
	"ucdocs/internal/logging"
)

// signatureRe matches the build signature footer in a generated README.
var signatureRe = regexp.MustCompile(`<!-- ucdocs:signature:([0-9a-f]{64}) -->`)

// Renderer emits README.md content for one exercise directory.
type Renderer struct {
	idx        *index.Index
	workspace  string
	defaultTOC bool
}

// NewRenderer creates a renderer over a built index.
func NewRenderer(idx *index.Index, workspace string, defaultTOC bool) *Renderer {
	return &Renderer{idx: idx, workspace: workspace, defaultTOC: defaultTOC}
}

// Render produces the README markdown for an outline. exerciseDir is the
// outline's directory relative to the workspace root; attachment paths are
// resolved against it.
func (r *Renderer) Render(exerciseDir string, o *Outline) (string, error) {
	timer := logging.StartTimer(logging.CategoryRender, "Render "+exerciseDir)
	defer timer.Stop()

	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", o.Title)
	if o.Summary != "" {
		fmt.Fprintf(&b, "\n*%s*\n", o.Summary)
	}
	if o.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimRight(o.Description, "\n"))
	}

	sections, err := r.renderSections(exerciseDir, o)
	if err != nil {
		return "", err
	}

	toc := r.defaultTOC
	if o.TOC != nil {
		toc = *o.TOC
	}
	if toc && len(sectionTitles(o, r.idx)) > 0 {
		b.WriteString("\n## Contents\n\n")
		for _, title := range sectionTitles(o, r.idx) {
			fmt.Fprintf(&b, "- [%s](#%s)\n", title, anchor(title))
		}
	}

	b.WriteString(sections)

	fmt.Fprintf(&b, "\n<!-- ucdocs:signature:%s -->\n", r.idx.Signature)

	return b.String(), nil
}

// renderSections renders the outline body.
func (r *Renderer) renderSections(exerciseDir string, o *Outline) (string, error) {
	var b strings.Builder

	for i, item := range o.Outline {
		kind, err := item.kind()
		if err != nil {
			return "", fmt.Errorf("item %d: %w", i+1, err)
		}

		switch kind {
		case "unsafe":
			entry, ok := r.idx.Entries[item.Unsafe]
			if !ok {
				return "", fmt.Errorf("outline references unknown annotation %q", item.Unsafe)
			}
			if err := r.renderEntry(&b, exerciseDir, entry); err != nil {
				return "", err
			}

		case "heading":
			fmt.Fprintf(&b, "\n## %s\n", item.Heading)

		case "text":
			fmt.Fprintf(&b, "\n%s\n", strings.TrimRight(item.Text, "\n"))

		case "image":
			abs := filepath.Join(r.workspace, exerciseDir, filepath.FromSlash(item.Image))
			if _, err := os.Stat(abs); err != nil {
				return "", fmt.Errorf("image %q not found", item.Image)
			}
			fmt.Fprintf(&b, "\n![%s](%s)\n", strings.TrimSuffix(filepath.Base(item.Image), filepath.Ext(item.Image)), item.Image)

		case "http":
			if err := r.renderHTTP(&b, exerciseDir, item.HTTP); err != nil {
				return "", err
			}
		}
	}

	return b.String(), nil
}

// renderEntry emits one annotation section: title, notes, one fence per
// part, then the .http attachment when present.
func (r *Renderer) renderEntry(b *strings.Builder, exerciseDir string, entry *index.Entry) error {
	fmt.Fprintf(b, "\n## %s\n", entryTitle(entry))

	if entry.Notes != "" {
		fmt.Fprintf(b, "\n%s\n", strings.TrimRight(entry.Notes, "\n"))
	}

	for _, part := range entry.Parts {
		if len(entry.Parts) > 1 {
			fmt.Fprintf(b, "\nPart %d of %d, `%s` lines %d-%d:\n",
				part.Part, len(entry.Parts), part.File, part.StartLine, part.EndLine)
		}
		fmt.Fprintf(b, "\n```%s\n%s\n```\n", fenceTag(part.Language), part.Code)
	}

	if entry.HTTP != "" {
		if err := r.renderHTTP(b, exerciseDir, entry.HTTP); err != nil {
			return fmt.Errorf("annotation %q: %w", entry.ID, err)
		}
	}

	return nil
}

// renderHTTP inlines a .http request file as a fenced block.
func (r *Renderer) renderHTTP(b *strings.Builder, exerciseDir, rel string) error {
	abs := filepath.Join(r.workspace, exerciseDir, filepath.FromSlash(rel))
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("http attachment %q not found", rel)
	}
	fmt.Fprintf(b, "\n```http\n%s\n```\n", strings.TrimRight(string(data), "\n"))
	return nil
}

// sectionTitles lists the H2 titles the outline will produce, in order.
func sectionTitles(o *Outline, idx *index.Index) []string {
	var titles []string
	for _, item := range o.Outline {
		switch {
		case item.Unsafe != "":
			if entry, ok := idx.Entries[item.Unsafe]; ok {
				titles = append(titles, entryTitle(entry))
			}
		case item.Heading != "":
			titles = append(titles, item.Heading)
		}
	}
	return titles
}

func entryTitle(entry *index.Entry) string {
	if entry.Title != "" {
		return entry.Title
	}
	return entry.ID
}

// fenceTag maps a language identifier to a markdown fence tag.
func fenceTag(lang string) string {
	switch lang {
	case "unknown", "":
		return ""
	default:
		return lang
	}
}

// anchor converts a heading to a GitHub-style anchor.
func anchor(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// ReadSignature extracts the build signature from a generated README.
// Returns empty when the file does not exist or carries no signature.
func ReadSignature(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	m := signatureRe.FindSubmatch(data)
	if m == nil {
		return ""
	}
	return string(m[1])
}
