package queue

import (
	"sync"
	"time"
)

// Clock issues entry IDs derived from the creation timestamp in unix
// milliseconds, bumped to stay strictly increasing when two entries are
// created within the same millisecond.
//
// IDs double as creation timestamps, so within a collection ID order is
// insertion order. IDs are unique per clock, and each collection of a
// store shares one clock.
//
// Thread-safety: safe for concurrent use via internal mutex, though in
// practice all appends happen on one logical thread.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewClock creates a clock backed by wall time.
func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

// NewClockWithSource creates a clock backed by the given time source.
// Used by tests to issue deterministic IDs.
func NewClockWithSource(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next ID: the current unix-millisecond timestamp, or
// last+1 if wall time has not advanced (or moved backwards) since the
// previous call.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// Observe advances the clock past an externally issued ID, so IDs loaded
// from a persisted document never collide with freshly issued ones.
func (c *Clock) Observe(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id > c.last {
		c.last = id
	}
}
