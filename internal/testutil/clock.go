package testutil

import (
	"sync"
	"time"
)

// DeterministicClock is a thread-safe fake time source for tests.
//
// Each call to Now returns the base time advanced by one more step, so
// timestamps in reports are stable across runs and strictly increasing.
type DeterministicClock struct {
	mu    sync.Mutex
	base  time.Time
	step  time.Duration
	calls int64
}

// NewDeterministicClock creates a clock starting at base with a one-second
// step. The first call to Now returns base.
func NewDeterministicClock(base time.Time) *DeterministicClock {
	return &DeterministicClock{base: base, step: time.Second}
}

// Now returns the next timestamp.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many timestamps have been handed out.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock so the next call returns base again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}

// SequentialIDs returns a generator of "prefix-0001", "prefix-0002", ...
// for code that takes an ID function.
func SequentialIDs(prefix string) func() string {
	if prefix == "" {
		prefix = "test"
	}
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + pad4(n)
	}
}

func pad4(n int) string {
	s := []byte("0000")
	for i := 3; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}
	return string(s)
}
