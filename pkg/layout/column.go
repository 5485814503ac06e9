package layout

import "math"

// RoutingColumn is the strip between node column i and i+1. It hands out
// vertical channels (x-coordinates) to signals that cross it. A signal keeps
// the channel it first received, so every edge of a net passes through the
// strip on the same x.
//
// Columns are rebuilt from scratch on every routing pass; channels are never
// released individually.
type RoutingColumn struct {
	Left, Right float64

	free []float64
	used map[Signal]float64
}

// NewRoutingColumn creates a column spanning [left, right] with candidate
// channels every step units, excluding the borders. At most
// MaxChannelsPerColumn channels are created.
func NewRoutingColumn(left, right, step float64) *RoutingColumn {
	c := &RoutingColumn{Left: left, Right: right, used: make(map[Signal]float64)}
	if !(step > 0) {
		return c
	}
	slots := math.Floor((right-left)/step + 1e-9)
	if !(slots >= 2) {
		return c
	}
	n := int(min(slots, MaxChannelsPerColumn+1)) - 1
	c.free = make([]float64, 0, n)
	for k := 1; k <= n; k++ {
		c.free = append(c.free, left+float64(k)*step)
	}
	return c
}

// Allocate returns the channel for sig, taking a new one from the free list
// on first use. It returns false when the free list is exhausted.
func (c *RoutingColumn) Allocate(sig Signal) (float64, bool) {
	if x, ok := c.used[sig]; ok {
		return x, true
	}
	if len(c.free) == 0 {
		return 0, false
	}
	x := c.free[0]
	c.free = c.free[1:]
	c.used[sig] = x
	return x, true
}

// Channel returns the channel already allocated to sig, if any.
func (c *RoutingColumn) Channel(sig Signal) (float64, bool) {
	x, ok := c.used[sig]
	return x, ok
}

// Allocated returns the number of channels in use.
func (c *RoutingColumn) Allocated() int { return len(c.used) }

// Capacity returns the total number of channels, used or free.
func (c *RoutingColumn) Capacity() int { return len(c.used) + len(c.free) }
