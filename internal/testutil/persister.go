package testutil

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/stash/internal/kv"
)

// RecordingPersister implements store.Persister in memory. It records each
// successful persist as a deep copy, so tests can assert on exactly what
// would have reached disk and how many times.
type RecordingPersister struct {
	mu       sync.Mutex
	persists []kv.Document
	attempts int
	err      error
}

// NewRecordingPersister creates an empty recorder.
func NewRecordingPersister() *RecordingPersister {
	return &RecordingPersister{}
}

// Persist records the document, or fails with the injected error.
func (p *RecordingPersister) Persist(doc kv.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.err != nil {
		return p.err
	}
	p.persists = append(p.persists, doc.Clone())
	return nil
}

// FailWith makes every subsequent Persist return err; nil restores success.
func (p *RecordingPersister) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Count returns the number of successful persists.
func (p *RecordingPersister) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.persists)
}

// Attempts returns the number of Persist calls, failed ones included.
func (p *RecordingPersister) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Last returns the most recently persisted document.
func (p *RecordingPersister) Last() (kv.Document, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.persists) == 0 {
		return nil, false
	}
	return p.persists[len(p.persists)-1].Clone(), true
}

// Logger returns a logger that discards everything; tests pass it anywhere
// a component wants a *slog.Logger.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
