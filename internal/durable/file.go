package durable

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/stash/internal/kv"
)

const (
	backupSuffix       = ".bak"
	premigrationSuffix = ".premigration"
)

// File binds a document to its primary path and the derived backup paths.
// It performs no caching: every Persist serializes the document it is given
// and every Load reads from disk.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile creates a File for the given primary path. A nil logger discards
// all output.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &File{path: path, logger: logger}
}

// Path returns the primary document path.
func (f *File) Path() string { return f.path }

// BackupPath returns the rotating-backup path (one generation behind).
func (f *File) BackupPath() string { return f.path + backupSuffix }

// PreMigrationPath returns the path of the pre-migration snapshot.
func (f *File) PreMigrationPath() string { return f.path + premigrationSuffix }

// Persist serializes doc canonically and writes it to the primary path
// atomically, rotating the previous primary into the backup first. On any
// failure it returns a *WriteError and leaves the primary untouched.
func (f *File) Persist(doc kv.Document) error {
	data, err := doc.MarshalCanonical()
	if err != nil {
		return &WriteError{Path: f.path, Err: fmt.Errorf("serialize: %w", err)}
	}

	// Rotate the current generation into the backup before overwriting.
	// Single generation: the prior backup is simply replaced.
	if prev, err := os.ReadFile(f.path); err == nil {
		if err := writeAtomic(f.BackupPath(), prev); err != nil {
			return &WriteError{Path: f.path, Err: fmt.Errorf("rotate backup: %w", err)}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &WriteError{Path: f.path, Err: fmt.Errorf("read previous generation: %w", err)}
	}

	if err := writeAtomic(f.path, data); err != nil {
		return &WriteError{Path: f.path, Err: err}
	}

	f.logger.Debug("document persisted", "path", f.path, "bytes", len(data))
	return nil
}

// Load reads the document back, falling through primary -> backup -> empty.
// It never fails: corruption at every level is logged and absorbed, and the
// caller always receives a usable document.
func (f *File) Load() kv.Document {
	doc, err := readDocument(f.path)
	if err == nil {
		return doc
	}
	if errors.Is(err, os.ErrNotExist) {
		f.logger.Debug("no primary document, starting empty", "path", f.path)
	} else {
		f.logger.Warn("primary document unreadable, trying backup",
			"path", f.path, "error", err)
	}

	doc, berr := readDocument(f.BackupPath())
	if berr == nil {
		f.logger.Warn("recovered document from backup", "path", f.BackupPath())
		return doc
	}

	if !errors.Is(err, os.ErrNotExist) || !errors.Is(berr, os.ErrNotExist) {
		f.logger.Warn("backup document unreadable, starting empty",
			"path", f.BackupPath(), "error", berr)
	}
	return kv.Document{}
}

// SnapshotPreMigration copies the current primary, if any, to the
// pre-migration path. A stale snapshot from an earlier attempt is replaced
// or removed so rollback can never restore outdated bytes.
func (f *File) SnapshotPreMigration() error {
	prev, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.Remove(f.PreMigrationPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove stale pre-migration snapshot: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read primary for snapshot: %w", err)
	}
	if err := writeAtomic(f.PreMigrationPath(), prev); err != nil {
		return fmt.Errorf("write pre-migration snapshot: %w", err)
	}
	return nil
}

// RestorePreMigration replaces the primary with the pre-migration snapshot.
// With no snapshot present it is a no-op: a missing snapshot means there was
// no primary before migration, and a failed Persist left none behind.
func (f *File) RestorePreMigration() error {
	data, err := os.ReadFile(f.PreMigrationPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read pre-migration snapshot: %w", err)
	}
	if err := writeAtomic(f.path, data); err != nil {
		return fmt.Errorf("restore primary from snapshot: %w", err)
	}
	return nil
}

// DiscardPreMigration removes the pre-migration snapshot after a committed
// migration. Missing is fine.
func (f *File) DiscardPreMigration() error {
	if err := os.Remove(f.PreMigrationPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard pre-migration snapshot: %w", err)
	}
	return nil
}

func readDocument(path string) (kv.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := kv.DecodeDocument(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return doc, nil
}

// writeAtomic writes data to path through a uniquely named temp file in the
// same directory, synced before rename so the target either keeps its old
// content or shows the new content in full.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	file, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
