package store

import (
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/stash/internal/kv"
)

// DefaultDelay is the deferred-write coalescing window.
const DefaultDelay = 500 * time.Millisecond

// Priority tells the scheduler how urgently a Set must become durable.
type Priority int

const (
	// Deferred tolerates a short coalescing delay before persistence.
	Deferred Priority = iota
	// Critical requires durable persistence before Set returns.
	Critical
)

// Persister is the durability sink. durable.File implements it.
type Persister interface {
	Persist(doc kv.Document) error
}

// Options configures a Store. The zero value selects the system clock, the
// default delay, and a discard logger.
type Options struct {
	Clock  Clock
	Delay  time.Duration
	Logger *slog.Logger
}

// Store is the canonical in-memory mapping of keys to values. The durable
// document may lag behind it, never precede it.
type Store struct {
	mu        sync.Mutex
	doc       kv.Document
	persister Persister
	clock     Clock
	delay     time.Duration
	logger    *slog.Logger

	state      writeState
	deadline   time.Time
	timer      Timer
	generation uint64
}

// New creates a Store over an initial document, typically the result of
// durable.(*File).Load. The document is owned by the store afterwards.
func New(doc kv.Document, p Persister, opts Options) *Store {
	if doc == nil {
		doc = kv.Document{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		doc:       doc,
		persister: p,
		clock:     opts.Clock,
		delay:     opts.Delay,
		logger:    opts.Logger,
	}
}

// Get returns the value stored under key. Collection kinds are cloned so
// the caller cannot alias store internals.
func (s *Store) Get(key kv.Key) (kv.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.doc[key]
	if !ok {
		return nil, false
	}
	return kv.Clone(v), true
}

// Set stores value under key, or removes the entry when value is nil, and
// hands the mutation to the scheduler. A Set that does not change the value
// still resets the debounce window.
func (s *Store) Set(key kv.Key, value kv.Value, pri Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == nil {
		delete(s.doc, key)
	} else {
		s.doc[key] = kv.Clone(value)
	}
	s.scheduleLocked(pri)
}

// Bool returns the boolean under key, or def when the key is absent or
// holds a different kind.
func (s *Store) Bool(key kv.Key, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.doc[key].(kv.Bool); ok {
		return bool(b)
	}
	return def
}

// String returns the string under key, or def.
func (s *Store) String(key kv.Key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if str, ok := s.doc[key].(kv.String); ok {
		return string(str)
	}
	return def
}

// StringList returns the list under key, or an empty list.
func (s *Store) StringList(key kv.Key) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list, ok := s.doc[key].(kv.StringList); ok {
		return kv.Clone(list).(kv.StringList)
	}
	return []string{}
}

// BoolMap returns the map under key, or an empty map.
func (s *Store) BoolMap(key kv.Key) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.doc[key].(kv.BoolMap); ok {
		return kv.Clone(m).(kv.BoolMap)
	}
	return map[string]bool{}
}

// SetBlob stores an opaque caller-encoded payload.
func (s *Store) SetBlob(key kv.Key, payload []byte, pri Priority) {
	s.Set(key, kv.Blob(payload), pri)
}

// Blob returns the opaque payload under key. A freshly loaded document
// holds blobs as base64 strings, so both representations are accepted.
func (s *Store) Blob(key kv.Key) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := s.doc[key].(type) {
	case kv.Blob:
		return kv.Clone(v).(kv.Blob), true
	case kv.String:
		decoded, err := base64.StdEncoding.DecodeString(string(v))
		if err != nil {
			return nil, false
		}
		return decoded, true
	default:
		return nil, false
	}
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() kv.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Restore replaces the in-memory document wholesale and cancels any pending
// deferred write. Used by the migration engine for import and rollback; it
// does not persist by itself.
func (s *Store) Restore(doc kv.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelScheduledLocked()
	s.doc = doc.Clone()
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc)
}
