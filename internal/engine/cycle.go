package engine

// CycleDetector records whole-network state fingerprints between ticks so a
// driver can recognise when the network has returned to an earlier state.
//
// Once the state after tick j equals the state after tick i (i < j), ticks
// i+1..j repeat forever with identical pulse counts. Aggregation uses this to
// skip whole cycles.
//
// Memory grows with the number of distinct states seen, so callers cap it
// with a limit; 0 means unlimited.
type CycleDetector struct {
	seen  map[string]int64
	limit int
}

// NewCycleDetector creates a detector that remembers at most limit states.
func NewCycleDetector(limit int) *CycleDetector {
	return &CycleDetector{seen: make(map[string]int64), limit: limit}
}

// Observe records the fingerprint of the state reached after tick. If the
// same state was reached earlier, it returns that earlier tick and true.
// Observations past the limit are not recorded.
func (c *CycleDetector) Observe(fingerprint string, tick int64) (int64, bool) {
	if prev, ok := c.seen[fingerprint]; ok {
		return prev, true
	}
	if c.limit > 0 && len(c.seen) >= c.limit {
		return 0, false
	}
	c.seen[fingerprint] = tick
	return 0, false
}

// Full reports whether the detector has stopped recording.
func (c *CycleDetector) Full() bool {
	return c.limit > 0 && len(c.seen) >= c.limit
}

// Len returns the number of distinct states recorded.
func (c *CycleDetector) Len() int {
	return len(c.seen)
}
