package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DocumentPath)
	assert.NotEmpty(t, cfg.LegacyPath)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
document_path: /tmp/stash.json
legacy_path: /tmp/legacy.db
debounce: 250ms
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stash.json", cfg.DocumentPath)
	assert.Equal(t, "/tmp/legacy.db", cfg.LegacyPath)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log_level: warn\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "debounce: soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_NegativeDuration(t *testing.T) {
	path := writeConfig(t, "debounce: -1s\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "::: not yaml")
	_, err := Load(path)
	assert.Error(t, err)
}
