package usage

import "sync/atomic"

// Counters holds the in-memory request and token totals shown on the
// dashboard. They count successful translations only and are reset only by
// an explicit Reset.
type Counters struct {
	totalRequests   atomic.Int64
	totalTokensUsed atomic.Int64
}

// NewCounters creates a new counter set initialized to zero.
func NewCounters() *Counters {
	return &Counters{}
}

// Record adds one completed request and its measured tokens.
func (c *Counters) Record(tokens int64) {
	if c == nil {
		return
	}
	c.totalRequests.Add(1)
	if tokens > 0 {
		c.totalTokensUsed.Add(tokens)
	}
}

// Snapshot returns current counter values.
func (c *Counters) Snapshot() CounterSnapshot {
	if c == nil {
		return CounterSnapshot{}
	}
	return CounterSnapshot{
		TotalRequests:   c.totalRequests.Load(),
		TotalTokensUsed: c.totalTokensUsed.Load(),
	}
}

// Reset zeroes all counters.
func (c *Counters) Reset() {
	if c == nil {
		return
	}
	c.totalRequests.Store(0)
	c.totalTokensUsed.Store(0)
}

// CounterSnapshot is a point-in-time view of Counters.
type CounterSnapshot struct {
	TotalRequests   int64 `json:"totalRequests"`
	TotalTokensUsed int64 `json:"totalTokensUsed"`
}
