package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the tool version, folded into every build signature so a
// renderer change invalidates cached output.
const Version = "1.2.0"

// Config holds all ucdocs configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Scanner configuration
	Scanner ScannerConfig `yaml:"scanner"`

	// Renderer configuration
	Render RenderConfig `yaml:"render"`

	// Taxonomy database
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ScannerConfig configures the workspace scanner.
type ScannerConfig struct {
	// Glob patterns relative to the workspace root. Empty include means
	// everything the language table recognizes.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// Hidden directories to descend into despite the default skip.
	HiddenAllow []string `yaml:"hidden_allow"`

	// Concurrent hash workers
	Workers int `yaml:"workers"`

	// File metadata cache location, relative to the workspace
	CachePath string `yaml:"cache_path"`
}

// RenderConfig configures README generation.
type RenderConfig struct {
	// Name of the outline file looked up per exercise directory
	OutlineFile string `yaml:"outline_file"`

	// Name of the generated file
	OutputFile string `yaml:"output_file"`

	// Default for readme.yml files that omit `toc`
	TOC bool `yaml:"toc"`
}

// TaxonomyConfig configures the taxonomy database.
type TaxonomyConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the categorized debug logger.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no logging
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "ucdocs",
		Version: Version,

		Scanner: ScannerConfig{
			Exclude:     []string{"node_modules/**", "vendor/**", "**/__pycache__/**"},
			HiddenAllow: []string{".github", ".vscode", ".config"},
			Workers:     20,
			CachePath:   ".ucdocs/cache/manifest.json",
		},

		Render: RenderConfig{
			OutlineFile: "readme.yml",
			OutputFile:  "README.md",
			TOC:         true,
		},

		Taxonomy: TaxonomyConfig{
			DatabasePath: ".ucdocs/taxonomy.db",
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Path returns the conventional config location inside a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".ucdocs", "config.yml")
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies UCDOCS_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("UCDOCS_DB"); path != "" {
		c.Taxonomy.DatabasePath = path
	}
	if path := os.Getenv("UCDOCS_CACHE"); path != "" {
		c.Scanner.CachePath = path
	}
	if name := os.Getenv("UCDOCS_OUTLINE_FILE"); name != "" {
		c.Render.OutlineFile = name
	}
	if name := os.Getenv("UCDOCS_OUTPUT_FILE"); name != "" {
		c.Render.OutputFile = name
	}
	if level := os.Getenv("UCDOCS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if debug := os.Getenv("UCDOCS_DEBUG"); debug != "" {
		if v, err := strconv.ParseBool(debug); err == nil {
			c.Logging.DebugMode = v
		}
	}
	if workers := os.Getenv("UCDOCS_WORKERS"); workers != "" {
		if v, err := strconv.Atoi(workers); err == nil && v > 0 {
			c.Scanner.Workers = v
		}
	}
}

// GetWatchDebounce returns the watch debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
