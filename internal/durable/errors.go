package durable

import "fmt"

// WriteError reports a failed durable write. The primary path is untouched
// when one of these is returned; the in-memory store remains authoritative
// and the next triggered write retries persistence.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("durable write failed for %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DecodeError reports an unreadable or malformed document. It is consumed
// internally by Load's fallback chain and never escapes the package; it is
// exported so tests and logs can name the failure precisely.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("document %s unreadable: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
