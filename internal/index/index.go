// Package index builds and persists the annotation index cache
// (.ucdocs/index.yml). The index is keyed by per-file content hashes so
// unchanged files never need re-parsing, and carries a build signature that
// renderers embed for staleness detection.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the index schema version. Loading any other version
// discards the cache.
const CurrentVersion = 3

// Fragment is one annotation occurrence in one file: metadata plus its
// resolved span. Entries are merged from fragments at build time.
type Fragment struct {
	ID        string `yaml:"id"`
	Title     string `yaml:"title,omitempty"`
	Notes     string `yaml:"notes,omitempty"`
	HTTP      string `yaml:"http,omitempty"`
	Part      int    `yaml:"part,omitempty"` // 0 = unset (part 1)
	StartLine int    `yaml:"start_line"`
	EndLine   int    `yaml:"end_line"`
	Code      string `yaml:"code"`
}

// PartNumber returns the effective part number (unset counts as 1).
func (f *Fragment) PartNumber() int {
	if f.Part == 0 {
		return 1
	}
	return f.Part
}

// FileRecord is the cached state of one scanned file.
type FileRecord struct {
	Hash      string     `yaml:"hash"`
	ModTime   int64      `yaml:"mod_time"`
	Size      int64      `yaml:"size"`
	Language  string     `yaml:"language"`
	Fragments []Fragment `yaml:"fragments,omitempty"`
}

// Part is one merged code span of an entry. Parts of one entry can live in
// files of different languages, so each carries its own.
type Part struct {
	File      string `yaml:"file"`
	Language  string `yaml:"language"`
	Part      int    `yaml:"part"`
	StartLine int    `yaml:"start_line"`
	EndLine   int    `yaml:"end_line"`
	Code      string `yaml:"code"`
}

// Entry is a fully merged annotation: metadata from part 1 plus all part
// spans in ascending order.
type Entry struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title,omitempty"`
	Notes    string `yaml:"notes,omitempty"`
	HTTP     string `yaml:"http,omitempty"`
	Language string `yaml:"language"`
	Parts    []Part `yaml:"parts"`
}

// Index is the persisted cache.
type Index struct {
	Version     int                   `yaml:"version"`
	Signature   string                `yaml:"signature"`
	RunID       string                `yaml:"run_id"`
	GeneratedAt string                `yaml:"generated_at"`
	Files       map[string]FileRecord `yaml:"files"`
	Entries     map[string]*Entry     `yaml:"entries"`
}

// New returns an empty index at the current version.
func New() *Index {
	return &Index{
		Version: CurrentVersion,
		Files:   make(map[string]FileRecord),
		Entries: make(map[string]*Entry),
	}
}

// DefaultPath returns the conventional index location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".ucdocs", "index.yml")
}

// Load reads an index from disk. A missing file or an index with a
// different schema version yields an empty index, never an error.
func Load(path string) *Index {
	data, err := os.ReadFile(path)
	if err != nil {
		return New()
	}

	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return New()
	}
	if idx.Version != CurrentVersion {
		return New()
	}
	if idx.Files == nil {
		idx.Files = make(map[string]FileRecord)
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]*Entry)
	}
	return &idx
}

// Save writes the index to disk.
func (idx *Index) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// EntryIDs returns all entry ids in sorted order.
func (idx *Index) EntryIDs() []string {
	ids := make([]string, 0, len(idx.Entries))
	for id := range idx.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stale reports whether a previously rendered signature no longer matches.
func (idx *Index) Stale(renderedSignature string) bool {
	return renderedSignature != idx.Signature
}

// signature computes the build signature over the sorted (path, hash) pairs
// plus the tool version.
func signature(files map[string]FileRecord, toolVersion string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	fmt.Fprintf(h, "ucdocs/%s\n", toolVersion)
	for _, p := range paths {
		fmt.Fprintf(h, "%s:%s\n", p, files[p].Hash)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
