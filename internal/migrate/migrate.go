package migrate

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/stash/internal/durable"
	"github.com/roach88/stash/internal/kv"
	"github.com/roach88/stash/internal/legacy"
	"github.com/roach88/stash/internal/store"
)

// State enumerates the migration phases.
type State int

const (
	StateNotStarted State = iota
	StateSnapshotting
	StateImporting
	StateWriting
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateSnapshotting:
		return "Snapshotting"
	case StateImporting:
		return "Importing"
	case StateWriting:
		return "Writing"
	case StateCommitted:
		return "Committed"
	case StateRolledBack:
		return "RolledBack"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error reports a failed migration and the state the engine ended in.
// RolledBack means every durable and in-memory effect was undone.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("migration failed in %s: %v", e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Engine drives the one-time migration. It is not safe for concurrent use;
// run it once at startup before the store sees traffic.
type Engine struct {
	store  *store.Store
	file   *durable.File
	legacy *legacy.Store
	table  []Entry
	logger *slog.Logger
	state  State
}

// NewEngine wires a migration engine over the store, its durable file, and
// the legacy source. A nil table selects DefaultTable; a nil logger
// discards output.
func NewEngine(s *store.Store, f *durable.File, l *legacy.Store, table []Entry, logger *slog.Logger) *Engine {
	if table == nil {
		table = DefaultTable
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:  s,
		file:   f,
		legacy: l,
		table:  table,
		logger: logger,
		state:  StateNotStarted,
	}
}

// State returns the phase the engine last reached.
func (e *Engine) State() State { return e.state }

// Run executes the migration unless the flag says it already committed.
// Any failure after Snapshotting rolls back fully: the primary document is
// left byte-identical to its pre-migration state and the flag stays false,
// so the next startup retries. Retrying is safe because Importing never
// overwrites a key that already holds a non-default value.
func (e *Engine) Run() error {
	done, err := e.legacy.MigrationDone()
	if err != nil {
		return &Error{State: e.state, Err: fmt.Errorf("read migration flag: %w", err)}
	}
	if done {
		e.logger.Debug("migration already committed, skipping")
		return nil
	}

	e.state = StateSnapshotting
	snapshot := e.store.Snapshot()
	if err := e.file.SnapshotPreMigration(); err != nil {
		// Nothing has been mutated yet; abort and retry next startup.
		e.state = StateRolledBack
		return &Error{State: e.state, Err: err}
	}

	e.state = StateImporting
	merged := snapshot.Clone()
	imported := 0
	for _, entry := range e.table {
		if cur, ok := merged[entry.Key]; ok && !kv.Equal(cur, entry.Default) {
			// A prior run (or the user) already put a real value here.
			continue
		}
		value, ok, err := e.legacy.Value(entry.LegacyKey, entry.Kind)
		if err != nil {
			e.logger.Warn("legacy value unreadable, using default",
				"legacyKey", entry.LegacyKey, "error", err)
			ok = false
		}
		if !ok {
			value = entry.Default
		} else {
			imported++
		}
		merged[entry.Key] = kv.Clone(value)
	}
	e.store.Restore(merged)

	e.state = StateWriting
	if err := e.store.Flush(); err != nil {
		e.rollback(snapshot)
		return &Error{State: e.state, Err: err}
	}

	if err := e.legacy.SetMigrationDone(true); err != nil {
		// The durable document already holds the migrated state; leaving
		// the flag false only means a harmless re-import next startup.
		return &Error{State: e.state, Err: fmt.Errorf("persist migration flag: %w", err)}
	}

	if err := e.file.DiscardPreMigration(); err != nil {
		e.logger.Warn("could not remove pre-migration snapshot", "error", err)
	}

	e.state = StateCommitted
	e.logger.Info("migration committed",
		"imported", imported, "entries", len(e.table))
	return nil
}

// rollback undoes the in-memory merge and restores the primary document
// from the pre-migration snapshot.
func (e *Engine) rollback(snapshot kv.Document) {
	e.store.Restore(snapshot)
	if err := e.file.RestorePreMigration(); err != nil {
		e.logger.Error("rollback could not restore primary document", "error", err)
	}
	e.state = StateRolledBack
	e.logger.Warn("migration rolled back, will retry next startup")
}
