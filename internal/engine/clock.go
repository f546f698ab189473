package engine

// Clock is the monotonic logical clock that stamps delivered signals.
//
// Sequence numbers are never wall-clock derived, so a replay of the same
// presses yields the same seq for the same signal. A clock belongs to one
// engine and is not safe for concurrent use.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *Clock) Reset() {
	c.seq = 0
}
