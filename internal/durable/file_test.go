package durable

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stash/internal/kv"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFile(t *testing.T) *File {
	t.Helper()
	return NewFile(filepath.Join(t.TempDir(), "stash.json"), testLogger())
}

func sampleDoc() kv.Document {
	return kv.Document{
		"launchAtLogin": kv.Bool(true),
		"apiKey":        kv.String("abc123"),
		"modules":       kv.StringList{"chat", "weather"},
		"flags":         kv.BoolMap{"beta": true, "telemetry": false},
	}
}

func TestPersist_CreatesPrimary(t *testing.T) {
	f := testFile(t)
	require.NoError(t, f.Persist(sampleDoc()))

	loaded := f.Load()
	assert.True(t, sampleDoc().Equal(loaded))
}

func TestPersist_FirstWriteHasNoBackup(t *testing.T) {
	f := testFile(t)
	require.NoError(t, f.Persist(sampleDoc()))

	_, err := os.Stat(f.BackupPath())
	assert.True(t, errors.Is(err, os.ErrNotExist), "no predecessor, no backup")
}

func TestPersist_RotatesPreviousGenerationIntoBackup(t *testing.T) {
	f := testFile(t)
	gen1 := kv.Document{"k": kv.String("one")}
	gen2 := kv.Document{"k": kv.String("two")}

	require.NoError(t, f.Persist(gen1))
	gen1Bytes, err := os.ReadFile(f.Path())
	require.NoError(t, err)

	require.NoError(t, f.Persist(gen2))

	backup, err := os.ReadFile(f.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, gen1Bytes, backup, "backup must be byte-for-byte the prior generation")
}

func TestPersist_Idempotent(t *testing.T) {
	f := testFile(t)
	require.NoError(t, f.Persist(sampleDoc()))
	first, err := os.ReadFile(f.Path())
	require.NoError(t, err)

	require.NoError(t, f.Persist(sampleDoc()))
	second, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPersist_FailureReturnsWriteError(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "no", "such", "dir", "stash.json"), testLogger())

	err := f.Persist(sampleDoc())
	require.Error(t, err)

	var we *WriteError
	assert.True(t, errors.As(err, &we))
	_, statErr := os.Stat(f.Path())
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed persist must not create the primary")
}

func TestPersist_LeavesNoTempFilesBehind(t *testing.T) {
	f := testFile(t)
	require.NoError(t, f.Persist(sampleDoc()))
	require.NoError(t, f.Persist(sampleDoc()))

	entries, err := os.ReadDir(filepath.Dir(f.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "stray temp file %s", e.Name())
	}
}

func TestLoad_MissingEverything(t *testing.T) {
	f := testFile(t)
	doc := f.Load()
	assert.Empty(t, doc)
}

func TestLoad_CorruptPrimaryFallsBackToBackup(t *testing.T) {
	f := testFile(t)
	gen1 := kv.Document{"k": kv.String("one")}
	gen2 := kv.Document{"k": kv.String("two")}
	require.NoError(t, f.Persist(gen1))
	require.NoError(t, f.Persist(gen2))

	require.NoError(t, os.WriteFile(f.Path(), []byte(`{"k": 42`), 0o600))

	loaded := f.Load()
	assert.True(t, gen1.Equal(loaded), "backup holds the prior generation")
}

func TestLoad_CorruptPrimaryAndBackupResetsEmpty(t *testing.T) {
	f := testFile(t)
	require.NoError(t, os.WriteFile(f.Path(), []byte("not json"), 0o600))
	require.NoError(t, os.WriteFile(f.BackupPath(), []byte{0xFF, 0x00}, 0o600))

	doc := f.Load()
	assert.Empty(t, doc)
}

func TestLoad_TruncatedPrimaryAtEveryOffset(t *testing.T) {
	f := testFile(t)
	gen1 := kv.Document{"k": kv.String("one")}
	gen2 := sampleDoc()
	require.NoError(t, f.Persist(gen1))
	require.NoError(t, f.Persist(gen2))

	full, err := os.ReadFile(f.Path())
	require.NoError(t, err)

	for off := 0; off < len(full); off++ {
		require.NoError(t, os.WriteFile(f.Path(), full[:off], 0o600))
		loaded := f.Load()
		// Every strict prefix of the document is malformed JSON, so the
		// backup generation must come back.
		assert.True(t, gen1.Equal(loaded), "offset %d", off)
	}
}

func TestSnapshotPreMigration_CopiesPrimary(t *testing.T) {
	f := testFile(t)
	require.NoError(t, f.Persist(sampleDoc()))
	primary, err := os.ReadFile(f.Path())
	require.NoError(t, err)

	require.NoError(t, f.SnapshotPreMigration())

	snap, err := os.ReadFile(f.PreMigrationPath())
	require.NoError(t, err)
	assert.Equal(t, primary, snap)
}

func TestSnapshotPreMigration_NoPrimaryRemovesStaleSnapshot(t *testing.T) {
	f := testFile(t)
	require.NoError(t, os.WriteFile(f.PreMigrationPath(), []byte("{}"), 0o600))

	require.NoError(t, f.SnapshotPreMigration())

	_, err := os.Stat(f.PreMigrationPath())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRestorePreMigration_ReplacesPrimary(t *testing.T) {
	f := testFile(t)
	before := kv.Document{"k": kv.String("before")}
	require.NoError(t, f.Persist(before))
	require.NoError(t, f.SnapshotPreMigration())

	require.NoError(t, f.Persist(kv.Document{"k": kv.String("after")}))
	require.NoError(t, f.RestorePreMigration())

	loaded := f.Load()
	assert.True(t, before.Equal(loaded))
}

func TestRestorePreMigration_NoSnapshotIsNoop(t *testing.T) {
	f := testFile(t)
	require.NoError(t, f.RestorePreMigration())
	_, err := os.Stat(f.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDiscardPreMigration(t *testing.T) {
	f := testFile(t)
	require.NoError(t, os.WriteFile(f.PreMigrationPath(), []byte("{}"), 0o600))
	require.NoError(t, f.DiscardPreMigration())
	require.NoError(t, f.DiscardPreMigration(), "second discard is fine")

	_, err := os.Stat(f.PreMigrationPath())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
