package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func initWorkspace(t *testing.T, configYAML string) string {
	t.Helper()
	ws := t.TempDir()
	if configYAML != "" {
		dir := filepath.Join(ws, ".ucdocs")
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(configYAML), 0644); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(CloseAll)
	return ws
}

func TestInitializeProductionModeIsSilent(t *testing.T) {
	ws := initWorkspace(t, "")
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if IsDebugMode() {
		t.Error("no config should mean production mode")
	}

	// Logging in production mode must not create the logs directory
	Scan("should go nowhere")
	if _, err := os.Stat(filepath.Join(ws, ".ucdocs", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist in production mode")
	}
}

func TestInitializeDebugModeWritesFiles(t *testing.T) {
	ws := initWorkspace(t, "logging:\n  debug_mode: true\n  level: debug\n")
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("debug_mode: true should enable logging")
	}

	Scan("hashing %d files", 3)
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(ws, ".ucdocs", "logs"))
	if err != nil {
		t.Fatalf("logs directory missing: %v", err)
	}
	if len(entries) == 0 {
		t.Error("debug mode should write log files")
	}
}

func TestCategoryToggle(t *testing.T) {
	ws := initWorkspace(t, "logging:\n  debug_mode: true\n  categories:\n    scan: false\n")
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if IsCategoryEnabled(CategoryScan) {
		t.Error("scan category should be disabled")
	}
	if !IsCategoryEnabled(CategoryRender) {
		t.Error("unlisted categories default to enabled")
	}
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	if err := Initialize(""); err == nil {
		t.Error("empty workspace should be rejected")
	}
}
