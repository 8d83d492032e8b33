// Package durable owns the on-disk representation of a stash document.
//
// A File binds a primary path plus two derived sibling paths: the rotating
// backup (one generation behind the primary) and the pre-migration snapshot
// used by the migration engine. Persist is atomic - the primary either holds
// the old bytes or the new bytes in full, never a partial mix - via
// write-to-temp-then-rename in the same directory. Immediately before each
// overwrite the previous primary is rotated into the backup.
//
// Load never fails. It tries the primary, then the backup, then gives up and
// returns an empty document; every fallback is logged and none is surfaced.
// Callers only ever observe "value absent".
package durable
