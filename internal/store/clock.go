package store

import "time"

// Clock abstracts timer scheduling so the debounce state machine can be
// driven deterministically in tests. The system implementation delegates
// to package time.
type Clock interface {
	Now() time.Time
	// AfterFunc arms fn to run on its own goroutine after d elapses.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is an armed callback. Stop reports whether the call prevented the
// callback from firing; false means it already fired or was stopped.
type Timer interface {
	Stop() bool
}

// SystemClock returns the wall-clock implementation used outside tests.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
