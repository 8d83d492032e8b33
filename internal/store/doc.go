// Package store implements the in-memory stash store and its write
// scheduler.
//
// ARCHITECTURE:
//
// Single-Writer Serialization Point:
// Every operation - Get, Set, Flush, snapshot, restore - runs under one
// mutex. This is the only concurrency discipline in the engine: reads and
// writes are totally ordered, and a Get issued after a Set observes the new
// value regardless of which goroutine issued it. The debounce timer's state
// transitions happen on the same serialization point, so a timer firing
// concurrently with a new Set cannot race: the Set either finds the timer
// still scheduled (and cancels it) or already past cancellation (and the
// stale callback no-ops on its generation check). There is never an
// ambiguous in-between.
//
// Write Scheduling:
// Each Set carries a priority. Critical cancels any pending deferred write
// and persists before the call returns. Deferred arms a coalescing timer,
// or resets the deadline of one already armed; when the quiet period
// elapses the full document is persisted once, holding only the final
// state. The scheduler is an explicit state machine - Idle, Scheduled,
// Firing - driven through an injectable Clock, so debounce logic is
// unit-testable without wall-clock sleeps.
//
// Persistence failures never reach Set callers: the in-memory document
// stays authoritative, the failure is logged, and the next triggered write
// retries. Flush is the one deliberate exception - shutdown wants to know.
package store
