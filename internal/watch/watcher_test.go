package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestStartStopLeaksNothing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := New(t.TempDir(), "readme.yml", nil, 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsWatching() {
		t.Error("watcher should report running after Start")
	}

	w.Stop()
	if w.IsWatching() {
		t.Error("watcher should report stopped after Stop")
	}

	// Stop twice is a no-op
	w.Stop()
}

func TestRebuildFiresAfterSettle(t *testing.T) {
	ws := t.TempDir()
	rebuilt := make(chan struct{}, 1)

	w, err := New(ws, "readme.yml", nil, 50*time.Millisecond, func(ctx context.Context) error {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild did not fire after a source change")
	}

	if stats := w.GetStats(); stats.Rebuilds == 0 {
		t.Errorf("stats should record the rebuild: %+v", stats)
	}
}

func TestIrrelevantFilesIgnored(t *testing.T) {
	ws := t.TempDir()
	rebuilt := make(chan struct{}, 1)

	w, err := New(ws, "readme.yml", nil, 50*time.Millisecond, func(ctx context.Context) error {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(ws, "notes.bin"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rebuilt:
		t.Error("binary file change should not trigger a rebuild")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestRelevant(t *testing.T) {
	w := &Watcher{outlineFile: "readme.yml"}
	cases := map[string]bool{
		"readme.yml":  true,
		"login.http":  true,
		"main.go":     true,
		"app.py":      true,
		"photo.jpg":   false,
		"archive.tar": false,
	}
	for name, want := range cases {
		if got := w.relevant(name); got != want {
			t.Errorf("relevant(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSkipDir(t *testing.T) {
	w := &Watcher{hiddenAllow: []string{".github"}}
	cases := map[string]bool{
		"src":     false,
		".git":    true,
		".ucdocs": true,
		".cache":  true,
		".github": false,
	}
	for name, want := range cases {
		if got := w.skipDir(name); got != want {
			t.Errorf("skipDir(%q) = %v, want %v", name, got, want)
		}
	}
}
