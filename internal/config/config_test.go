package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ucdocs", cfg.Name)
	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, 20, cfg.Scanner.Workers)
	assert.Equal(t, "readme.yml", cfg.Render.OutlineFile)
	assert.Equal(t, "README.md", cfg.Render.OutputFile)
	assert.True(t, cfg.Render.TOC)
	assert.Equal(t, ".ucdocs/taxonomy.db", cfg.Taxonomy.DatabasePath)
	assert.Equal(t, 500*time.Millisecond, cfg.GetWatchDebounce())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ".ucdocs", "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Scanner.CachePath, cfg.Scanner.CachePath)
}

func TestLoadSaveRoundtrip(t *testing.T) {
	ws := t.TempDir()
	cfg := DefaultConfig()
	cfg.Scanner.Workers = 4
	cfg.Render.TOC = false
	cfg.Watch.Debounce = "2s"
	require.NoError(t, cfg.Save(Path(ws)))

	loaded, err := Load(Path(ws))
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Scanner.Workers)
	assert.False(t, loaded.Render.TOC)
	assert.Equal(t, 2*time.Second, loaded.GetWatchDebounce())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UCDOCS_DB", "/tmp/other.db")
	t.Setenv("UCDOCS_WORKERS", "3")
	t.Setenv("UCDOCS_DEBUG", "true")
	t.Setenv("UCDOCS_OUTLINE_FILE", "outline.yml")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.Taxonomy.DatabasePath)
	assert.Equal(t, 3, cfg.Scanner.Workers)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "outline.yml", cfg.Render.OutlineFile)
}

func TestEnvOverridesIgnoreBadValues(t *testing.T) {
	t.Setenv("UCDOCS_WORKERS", "not-a-number")
	t.Setenv("UCDOCS_DEBUG", "maybe")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Scanner.Workers)
	assert.False(t, cfg.Logging.DebugMode)
}

func TestBadDebounceFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Watch.Debounce = "soon"
	assert.Equal(t, 500*time.Millisecond, cfg.GetWatchDebounce())
}

func TestIsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{DebugMode: false}
	assert.False(t, lc.IsCategoryEnabled("scan"))

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("scan"))

	lc.Categories = map[string]bool{"scan": false}
	assert.False(t, lc.IsCategoryEnabled("scan"))
	assert.True(t, lc.IsCategoryEnabled("render"))
}
