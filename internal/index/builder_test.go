package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ucdocs/internal/scan"
)

func writeSource(t *testing.T, dir, name, content string) scan.File {
	t.Helper()
	abs := filepath.Join(dir, name)
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return scan.File{
		Path:     name,
		Abs:      abs,
		Language: scan.DetectLanguage(name),
		Hash:     "hash-" + name + "-" + content[:8],
		Changed:  true,
	}
}

func TestBuildBasic(t *testing.T) {
	dir := t.TempDir()
	f := writeSource(t, dir, "login.go", `package main

// @unsafe[raw-query]
// title: String-built SQL
func login(user string) {
	_ = "SELECT * FROM users WHERE name = '" + user + "'"
}
`)

	b := NewBuilder()
	defer b.Close()

	idx, problems, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f}}, New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}

	entry, ok := idx.Entries["raw-query"]
	if !ok {
		t.Fatalf("entry raw-query missing; entries = %v", idx.EntryIDs())
	}
	if entry.Title != "String-built SQL" {
		t.Errorf("Title = %q", entry.Title)
	}
	if entry.Language != "go" {
		t.Errorf("Language = %q, want go", entry.Language)
	}
	if len(entry.Parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(entry.Parts))
	}
	if !strings.Contains(entry.Parts[0].Code, "func login") {
		t.Errorf("code span wrong:\n%s", entry.Parts[0].Code)
	}
	if idx.Signature == "" || idx.RunID == "" {
		t.Error("signature and run id should be set")
	}
}

func TestBuildReusesUnchangedFiles(t *testing.T) {
	prev := New()
	prev.Files["cached.go"] = FileRecord{
		Hash:     "same",
		Language: "go",
		Fragments: []Fragment{
			{ID: "kept", StartLine: 1, EndLine: 2, Code: "func kept() {}"},
		},
	}

	// Abs deliberately points nowhere: a reused file must not be re-read.
	f := scan.File{Path: "cached.go", Abs: "/nonexistent/cached.go", Language: "go", Hash: "same"}

	b := NewBuilder()
	defer b.Close()

	idx, problems, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f}}, prev)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if _, ok := idx.Entries["kept"]; !ok {
		t.Error("entry from the cached fragment should survive")
	}
}

func TestBuildMultiPartOrdering(t *testing.T) {
	dir := t.TempDir()
	// Part 2 lives in a file that sorts before part 1's file.
	f1 := writeSource(t, dir, "a.go", `package main

// @unsafe[leak]
// part: 2
func drain() {}
`)
	f2 := writeSource(t, dir, "b.go", `package main

// @unsafe[leak]
// title: Goroutine leak
// part: 1
func spawn() {}
`)

	b := NewBuilder()
	defer b.Close()

	idx, problems, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f1, f2}}, New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}

	entry := idx.Entries["leak"]
	if entry == nil {
		t.Fatal("entry leak missing")
	}
	if entry.Title != "Goroutine leak" {
		t.Errorf("metadata should come from part 1, got title %q", entry.Title)
	}
	if len(entry.Parts) != 2 || entry.Parts[0].Part != 1 || entry.Parts[1].Part != 2 {
		t.Fatalf("parts out of order: %+v", entry.Parts)
	}
	if entry.Parts[0].File != "b.go" || entry.Parts[1].File != "a.go" {
		t.Errorf("part files wrong: %s, %s", entry.Parts[0].File, entry.Parts[1].File)
	}
}

func TestBuildMultiPartAcrossLanguages(t *testing.T) {
	dir := t.TempDir()
	f1 := writeSource(t, dir, "app.py", `# @unsafe[xss]
# title: Reflected XSS
# part: 1
html = "<b>" + name + "</b>"
# @/unsafe[xss]
`)
	f2 := writeSource(t, dir, "page.js", `// @unsafe[xss]
// part: 2
el.innerHTML = payload;
// @/unsafe[xss]
`)

	b := NewBuilder()
	defer b.Close()

	idx, problems, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f1, f2}}, New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}

	entry := idx.Entries["xss"]
	if entry == nil {
		t.Fatal("entry xss missing")
	}
	if entry.Language != "python" {
		t.Errorf("entry language should follow part 1, got %q", entry.Language)
	}
	if len(entry.Parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(entry.Parts))
	}
	if entry.Parts[0].Language != "python" || entry.Parts[1].Language != "javascript" {
		t.Errorf("part languages = %q, %q; want python, javascript",
			entry.Parts[0].Language, entry.Parts[1].Language)
	}
}

func TestBuildBrokenPartSequence(t *testing.T) {
	dir := t.TempDir()
	f := writeSource(t, dir, "gap.go", `package main

// @unsafe[gap]
// part: 1
func one() {}

// @unsafe[gap]
// part: 3
func three() {}
`)

	b := NewBuilder()
	defer b.Close()

	idx, problems, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f}}, New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 1 || !strings.Contains(problems[0].Message, "part sequence") {
		t.Fatalf("want one part-sequence problem, got %v", problems)
	}
	if _, ok := idx.Entries["gap"]; ok {
		t.Error("entry with a broken sequence should be dropped")
	}
}

func TestBuildDuplicatePart(t *testing.T) {
	dir := t.TempDir()
	f := writeSource(t, dir, "dup.go", `package main

// @unsafe[dup]
func one() {}

// @unsafe[dup]
func two() {}
`)

	b := NewBuilder()
	defer b.Close()

	idx, problems, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f}}, New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(problems) != 1 || !strings.Contains(problems[0].Message, "duplicate part") {
		t.Fatalf("want one duplicate-part problem, got %v", problems)
	}
	if _, ok := idx.Entries["dup"]; ok {
		t.Error("entry with duplicate parts should be dropped")
	}
}

func TestBuildSkipsUnsupportedLanguages(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "data.json")
	if err := os.WriteFile(abs, []byte(`{"x": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	f := scan.File{Path: "data.json", Abs: abs, Language: "json", Hash: "h"}

	b := NewBuilder()
	defer b.Close()

	idx, _, err := b.Build(context.Background(), &scan.Result{Files: []scan.File{f}}, New())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(idx.Files) != 0 {
		t.Error("unsupported languages should not enter the index")
	}
}
