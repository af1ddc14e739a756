package util

import "time"

// CounterRate tracks a monotonically increasing counter and yields its
// per-second rate between observations. The first observation primes the
// tracker and reports no rate; a counter reset (reboot, wrap) also reports
// no rate for that observation.
type CounterRate struct {
	prev   uint64
	prevAt time.Time
	primed bool
}

// Observe records a counter reading and returns (rate, true) when a rate
// could be computed.
func (c *CounterRate) Observe(value uint64, at time.Time) (float64, bool) {
	defer func() {
		c.prev = value
		c.prevAt = at
		c.primed = true
	}()

	if !c.primed || value < c.prev {
		return 0, false
	}
	dt := at.Sub(c.prevAt).Seconds()
	if dt <= 0 {
		return 0, false
	}
	return float64(value-c.prev) / dt, true
}

// Primed reports whether the tracker has seen at least one observation.
func (c *CounterRate) Primed() bool {
	return c.primed
}
