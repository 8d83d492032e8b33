package store

// writeState is the debounce state machine. Transitions only happen while
// holding the store mutex, so callers and the timer callback can never
// observe an in-between state.
type writeState int

const (
	writeIdle writeState = iota
	writeScheduled
	writeFiring
)

// scheduleLocked routes a mutation to the scheduler. Caller holds s.mu.
func (s *Store) scheduleLocked(pri Priority) {
	if pri == Critical {
		s.cancelScheduledLocked()
		s.persistLocked()
		return
	}

	// Deferred: arm, or reset the armed deadline. Pure coalescing - only
	// the latest state ever reaches disk.
	s.cancelScheduledLocked()
	s.generation++
	gen := s.generation
	s.state = writeScheduled
	s.deadline = s.clock.Now().Add(s.delay)
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
	s.logger.Debug("deferred write scheduled", "deadline", s.deadline)
}

// cancelScheduledLocked stops any pending timer and returns the machine to
// Idle. Bumping the generation invalidates a callback that already escaped
// Stop and is blocked on the mutex. Caller holds s.mu.
func (s *Store) cancelScheduledLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
	s.state = writeIdle
}

// fire runs on the timer goroutine when the coalescing window elapses.
func (s *Store) fire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer Set, a critical write, or a Flush owns the write now.
	if s.state != writeScheduled || gen != s.generation {
		return
	}

	s.state = writeFiring
	s.timer = nil
	s.persistLocked()
	s.state = writeIdle
}

// persistLocked pushes the current document to the persister. Failures are
// absorbed: the in-memory document stays authoritative and the next
// triggered write retries. Caller holds s.mu.
func (s *Store) persistLocked() error {
	err := s.persister.Persist(s.doc)
	if err != nil {
		s.logger.Error("durable write failed, in-memory store remains authoritative",
			"error", err, "entries", len(s.doc))
	}
	return err
}

// Flush cancels any pending deferred write and persists synchronously,
// regardless of priority history. It must be called on shutdown and blocks
// until the durable write completes.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelScheduledLocked()
	return s.persistLocked()
}

// Pending reports whether a deferred write is currently scheduled.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writeScheduled
}
