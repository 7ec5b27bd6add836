// Package slots tracks execution concurrency capacity for the
// coordinator. A slot is consumed when an attempt is dispatched and
// released when its terminal outcome is observed.
//
// Acquire and Release are deliberately unforgiving: an acquire with no
// availability or an unpaired release means the coordination tick itself
// is buggy, and continuing with a corrupted counter would break
// backpressure for every queued attempt. Both panic instead.
package slots

import "fmt"

// Counter tracks a fixed capacity and the number of slots currently in
// use. It is not safe for concurrent use; the coordinator serializes
// access under its own lock.
type Counter struct {
	capacity int
	used     int
}

// NewCounter creates a Counter with the given capacity. Capacity must
// be non-negative.
func NewCounter(capacity int) *Counter {
	if capacity < 0 {
		panic(fmt.Sprintf("slots: negative capacity %d", capacity))
	}
	return &Counter{capacity: capacity}
}

// Capacity returns the configured slot ceiling.
func (c *Counter) Capacity() int {
	return c.capacity
}

// Used returns the number of slots currently consumed.
func (c *Counter) Used() int {
	return c.used
}

// Available returns the number of free slots. When the ceiling has been
// lowered below the in-use count it reports zero rather than a negative
// number.
func (c *Counter) Available() int {
	if c.used >= c.capacity {
		return 0
	}
	return c.capacity - c.used
}

// Acquire consumes one slot. Calling Acquire with zero availability is
// a coordination bug and panics.
func (c *Counter) Acquire() {
	if c.used >= c.capacity {
		panic(fmt.Sprintf("slots: acquire with no availability (capacity %d)", c.capacity))
	}
	c.used++
}

// Release frees one slot previously consumed by Acquire. Releasing more
// slots than were acquired is a coordination bug and panics.
func (c *Counter) Release() {
	if c.used <= 0 {
		panic("slots: release without matching acquire")
	}
	c.used--
}

// SetCapacity changes the slot ceiling. Lowering it below the number of
// slots currently in use is allowed: no running attempt is interrupted,
// but Available will report zero until enough attempts finish.
func (c *Counter) SetCapacity(capacity int) {
	if capacity < 0 {
		panic(fmt.Sprintf("slots: negative capacity %d", capacity))
	}
	c.capacity = capacity
}
