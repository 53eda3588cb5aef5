package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestResolveWorkspace(t *testing.T) {
	orig := workspace
	defer func() { workspace = orig }()

	dir := t.TempDir()
	workspace = dir
	got, err := resolveWorkspace()
	if err != nil {
		t.Fatalf("resolveWorkspace() error = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("workspace should be absolute, got %q", got)
	}

	// Empty flag falls back to the current directory
	workspace = ""
	cwd, _ := os.Getwd()
	got, err = resolveWorkspace()
	if err != nil {
		t.Fatalf("resolveWorkspace() error = %v", err)
	}
	if got != cwd {
		t.Errorf("resolveWorkspace() = %q, want cwd %q", got, cwd)
	}
}

func TestRunCheckSetsExitCode(t *testing.T) {
	origWS, origTimeout, origLogger, origExit := workspace, timeout, logger, exitCode
	defer func() {
		workspace, timeout, logger, exitCode = origWS, origTimeout, origLogger, origExit
	}()
	logger = zap.NewNop()
	timeout = time.Minute

	// An annotation no outline references is an orphan finding
	ws := t.TempDir()
	src := "package main\n\n// @unsafe[stray]\nfunc f() {}\n"
	if err := os.WriteFile(filepath.Join(ws, "main.go"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	workspace = ws
	exitCode = 0

	// runCheck must return so the post-run hooks get to close the logs;
	// findings surface through the exit code instead
	if err := runCheck(checkCmd, nil); err != nil {
		t.Fatalf("runCheck() error = %v", err)
	}
	if exitCode != 1 {
		t.Errorf("exitCode = %d, want 1", exitCode)
	}

	// A clean workspace leaves the exit code alone
	workspace = t.TempDir()
	exitCode = 0
	if err := runCheck(checkCmd, nil); err != nil {
		t.Fatalf("runCheck() error = %v", err)
	}
	if exitCode != 0 {
		t.Errorf("exitCode = %d, want 0", exitCode)
	}
}
