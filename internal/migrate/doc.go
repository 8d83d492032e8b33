// Package migrate performs the one-time import from the legacy preference
// store into the stash document.
//
// The engine is an explicit state machine:
//
//	NotStarted -> Snapshotting -> Importing -> Writing -> Committed
//	                                              \-> RolledBack
//
// It runs at startup, gated by the migration flag kept in the legacy store.
// Snapshotting captures both the in-memory document and, when a primary
// document exists on disk, a byte-for-byte pre-migration copy. Importing
// merges the fixed mapping table without overwriting keys that already hold
// a non-default value, which makes retries idempotent. Writing persists
// once; on failure everything rolls back - in-memory state from the
// snapshot, the primary document from the pre-migration copy - and the flag
// stays false so the next startup retries. A failed migration leaves the
// durable primary byte-identical to its pre-migration state.
package migrate
