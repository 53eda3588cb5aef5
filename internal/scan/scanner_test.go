package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ucdocs/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testScanner(root string) *Scanner {
	cfg := config.DefaultConfig().Scanner
	return NewScanner(root, cfg)
}

func findFile(res *Result, path string) *File {
	for i := range res.Files {
		if res.Files[i].Path == path {
			return &res.Files[i]
		}
	}
	return nil
}

func TestScanBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "exercises/sqli/login.go", "package main\n")
	writeFile(t, root, "exercises/sqli/readme.yml", "title: T\n")
	writeFile(t, root, "app.py", "print('x')\n")

	res, err := testScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if res.FileCount != 3 {
		t.Errorf("FileCount = %d, want 3", res.FileCount)
	}
	if res.Languages["go"] != 1 || res.Languages["python"] != 1 {
		t.Errorf("language counts wrong: %v", res.Languages)
	}

	f := findFile(res, "exercises/sqli/login.go")
	if f == nil {
		t.Fatal("login.go not scanned")
	}
	if f.Hash == "" || !f.Changed {
		t.Errorf("fresh file should be hashed and marked changed: %+v", f)
	}
}

func TestScanSkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/config", "x")
	writeFile(t, root, ".ucdocs/index.yml", "version: 2")
	writeFile(t, root, ".vscode/tasks.json", "{}")
	writeFile(t, root, "main.go", "package main\n")

	res, err := testScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.FileCount != 1 {
		t.Errorf("hidden dirs should be skipped; files = %v", res.Files)
	}
}

func TestScanHiddenAllowlist(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".config/settings.yml", "a: 1")
	writeFile(t, root, "main.go", "package main\n")

	cfg := config.DefaultConfig().Scanner
	cfg.HiddenAllow = []string{".config"}
	res, err := NewScanner(root, cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if findFile(res, ".config/settings.yml") == nil {
		t.Error("allowlisted hidden dir should be scanned")
	}
}

func TestScanExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "x")
	writeFile(t, root, "src/deep/nested/index.js", "x")
	writeFile(t, root, "main.js", "x")

	cfg := config.DefaultConfig().Scanner
	cfg.Exclude = []string{"node_modules/**", "**/nested/*"}
	res, err := NewScanner(root, cfg).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if findFile(res, "node_modules/pkg/index.js") != nil {
		t.Error("node_modules should be excluded")
	}
	if findFile(res, "src/deep/nested/index.js") != nil {
		t.Error("**/nested/* should exclude deeply nested files")
	}
	if findFile(res, "main.js") == nil {
		t.Error("main.js should survive the excludes")
	}
}

func TestScanChangeDetection(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")

	s := testScanner(root)
	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("first Scan() error = %v", err)
	}

	// Second scan with a fresh scanner loads the saved manifest.
	res, err := testScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if f := findFile(res, "main.go"); f == nil || f.Changed {
		t.Errorf("unchanged file should not be marked changed: %+v", f)
	}

	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	res, err = testScanner(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("third Scan() error = %v", err)
	}
	if f := findFile(res, "main.go"); f == nil || !f.Changed {
		t.Errorf("edited file should be marked changed: %+v", f)
	}
	if len(res.Changed()) != 1 {
		t.Errorf("Changed() = %v, want one file", res.Changed())
	}
}

func TestScanContextCancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testScanner(root).Scan(ctx); err == nil {
		t.Error("cancelled context should abort the scan")
	}
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern, rel string
		want         bool
	}{
		{"node_modules/**", "node_modules/a/b.js", true},
		{"node_modules/**", "node_modules", true},
		{"node_modules/**", "src/a.js", false},
		{"**/*.min.js", "dist/app.min.js", true},
		{"**/*.min.js", "app.min.js", true},
		{"*.go", "main.go", true},
		{"*.go", "pkg/main.go", false},
		{"exercises/*/solution/**", "exercises/sqli/solution/key.txt", true},
		{"exercises/*/solution/**", "exercises/sqli/src/key.txt", false},
	}
	for _, tc := range cases {
		if got := matchGlob(tc.pattern, tc.rel); got != tc.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tc.pattern, tc.rel, got, tc.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"main.go":       "go",
		"app.py":        "python",
		"index.ts":      "typescript",
		"vuln.c":        "c",
		"style.css":     "css",
		"Dockerfile":    "dockerfile",
		"Makefile":      "makefile",
		"notes.txt":     "text",
		"data.unknown2": "unknown",
	}
	for name, want := range cases {
		if got := DetectLanguage(name); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", name, got, want)
		}
	}
}
