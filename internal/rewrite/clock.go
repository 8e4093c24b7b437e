package rewrite

import "sync/atomic"

// Clock is a monotonic logical clock stamping rewrite events.
//
// All events carry a strictly increasing seq number from this clock, so
// trace ordering is deterministic and never depends on wall time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the driver's single-writer design means one goroutine normally
// calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
