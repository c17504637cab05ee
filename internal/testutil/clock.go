package testutil

import (
	"sync"
	"time"
)

// Epoch is the first time a DeterministicClock reports.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock provides a thread-safe clock for tests that advances
// by a fixed step on every reading.
//
// DeterministicClock can be reset for test reuse. This enables the same
// experiment to run multiple times with identical timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	ticks int64
	step  time.Duration
}

// NewDeterministicClock creates a clock that advances one second per
// reading.
//
// The first call to Now() returns Epoch.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockStep(time.Second)
}

// NewDeterministicClockStep creates a clock that advances by step per
// reading.
func NewDeterministicClockStep(step time.Duration) *DeterministicClock {
	return &DeterministicClock{step: step}
}

// Now returns Epoch plus one step per previous reading.
//
// Thread-safe: uses mutex to protect ticks access.
// Monotonic: never goes backwards for a non-negative step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Epoch.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Ticks returns how many times Now has been called since the last reset.
func (c *DeterministicClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock. After Reset(), the next call to Now() returns
// Epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
