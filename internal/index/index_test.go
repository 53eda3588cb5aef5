package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	idx := New()
	idx.Signature = "abc"
	idx.RunID = "run-1"
	idx.Files["main.go"] = FileRecord{
		Hash: "h1", ModTime: 100, Size: 42, Language: "go",
		Fragments: []Fragment{{ID: "raw-query", StartLine: 3, EndLine: 7, Code: "func f() {}"}},
	}
	idx.Entries["raw-query"] = &Entry{
		ID: "raw-query", Language: "go",
		Parts: []Part{{File: "main.go", Language: "go", Part: 1, StartLine: 3, EndLine: 7, Code: "func f() {}"}},
	}

	path := filepath.Join(t.TempDir(), "index.yml")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := Load(path)
	if diff := cmp.Diff(idx, loaded); diff != "" {
		t.Errorf("roundtrip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	idx := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if len(idx.Files) != 0 || len(idx.Entries) != 0 {
		t.Error("missing file should load as an empty index")
	}
	if idx.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", idx.Version, CurrentVersion)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0644); err != nil {
		t.Fatal(err)
	}
	idx := Load(path)
	if len(idx.Files) != 0 {
		t.Error("corrupt file should load as an empty index")
	}
}

func TestLoadVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.yml")
	old := New()
	old.Version = 1
	old.Files["stale.go"] = FileRecord{Hash: "x"}
	if err := old.Save(path); err != nil {
		t.Fatal(err)
	}

	idx := Load(path)
	if len(idx.Files) != 0 {
		t.Error("old schema version should be discarded")
	}
}

func TestSignatureDeterministic(t *testing.T) {
	files := map[string]FileRecord{
		"b.go": {Hash: "h2"},
		"a.go": {Hash: "h1"},
	}
	s1 := signature(files, "1.0.0")
	s2 := signature(map[string]FileRecord{"a.go": {Hash: "h1"}, "b.go": {Hash: "h2"}}, "1.0.0")
	if s1 != s2 {
		t.Error("signature should not depend on map iteration order")
	}
	if s1 == signature(files, "1.0.1") {
		t.Error("signature should change with the tool version")
	}

	files["a.go"] = FileRecord{Hash: "changed"}
	if s1 == signature(files, "1.0.0") {
		t.Error("signature should change when a file hash changes")
	}
}

func TestStale(t *testing.T) {
	idx := New()
	idx.Signature = "sig"
	if idx.Stale("sig") {
		t.Error("matching signature should not be stale")
	}
	if !idx.Stale("other") {
		t.Error("differing signature should be stale")
	}
}
