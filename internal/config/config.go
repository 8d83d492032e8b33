// Package config loads the engine's YAML configuration: where the document
// and legacy database live, how long the deferred-write coalescing window
// is, and how loud logging should be.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	// DocumentPath is the primary stash document; backup paths derive
	// from it.
	DocumentPath string `yaml:"document_path"`
	// LegacyPath is the legacy SQLite preference database.
	LegacyPath string `yaml:"legacy_path"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Debounce is parsed from DebounceRaw.
	Debounce time.Duration `yaml:"-"`
	// DebounceRaw is the coalescing window as a duration string.
	DebounceRaw string `yaml:"debounce"`
}

// Default returns the configuration used when no file exists, rooted in
// the user config directory.
func Default() Config {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "stash")
	return Config{
		DocumentPath: filepath.Join(dir, "stash.json"),
		LegacyPath:   filepath.Join(dir, "legacy.db"),
		LogLevel:     "info",
		Debounce:     500 * time.Millisecond,
		DebounceRaw:  "500ms",
	}
}

// Load reads the configuration from path. A missing file is not an error -
// defaults apply; fields absent from the file keep their defaults too.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DebounceRaw != "" {
		d, err := time.ParseDuration(cfg.DebounceRaw)
		if err != nil {
			return Config{}, fmt.Errorf("parse debounce %q: %w", cfg.DebounceRaw, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("debounce must be positive, got %q", cfg.DebounceRaw)
		}
		cfg.Debounce = d
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level %q: must be debug, info, warn, or error", c.LogLevel)
	}
}
