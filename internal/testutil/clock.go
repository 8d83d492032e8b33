// Package testutil provides deterministic test doubles for the persistence
// engine: a manually stepped clock for driving the debounce scheduler and a
// recording persister for observing durable writes without touching disk.
package testutil

import (
	"sync"
	"time"

	"github.com/roach88/stash/internal/store"
)

// FakeClock implements store.Clock with manually advanced time.
//
// Timers armed through AfterFunc fire synchronously inside Advance, in
// deadline order, on the calling goroutine. The same scheduler scenario
// therefore produces the identical interleaving on every run - no sleeps,
// no flakes.
//
// Thread-safety: all methods are safe for concurrent use via an internal
// mutex; callbacks are invoked with the mutex released so they may re-arm
// timers or call back into the clock.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

// NewFakeClock creates a clock at a fixed arbitrary epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc arms fn to fire once the clock has advanced past d.
func (c *FakeClock) AfterFunc(d time.Duration, fn func()) store.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every due timer in deadline
// order before returning.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		t := c.nextDueLocked(target)
		if t == nil {
			break
		}
		c.now = t.when
		t.fired = true
		fn := t.fn
		// Release the mutex while the callback runs: it may take the
		// store's lock or arm a new timer.
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// nextDueLocked returns the earliest live timer with a deadline at or
// before target, or nil.
func (c *FakeClock) nextDueLocked(target time.Time) *fakeTimer {
	var due *fakeTimer
	for _, t := range c.timers {
		if t.fired || t.stopped || t.when.After(target) {
			continue
		}
		if due == nil || t.when.Before(due.when) {
			due = t
		}
	}
	return due
}

type fakeTimer struct {
	clock   *FakeClock
	when    time.Time
	fn      func()
	fired   bool
	stopped bool
}

// Stop cancels the timer; it reports false when the timer already fired or
// was stopped, matching time.Timer semantics.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
