// Package testutil holds deterministic helpers for scenario runs and tests.
package testutil

import (
	"fmt"
	"sync"
)

// DeterministicClock is a resettable logical clock. The harness numbers
// scenario steps with it and derives object IDs from it, so a scenario run
// twice produces identical traces.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0. The first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset sets the clock back to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// IDGenerator produces "<prefix>-<n>" object IDs from a clock. It
// satisfies engine.IDGenerator.
type IDGenerator struct {
	prefix string
	clock  *DeterministicClock
}

// NewIDGenerator creates a generator. A nil clock gets a fresh one.
func NewIDGenerator(prefix string, clock *DeterministicClock) *IDGenerator {
	if clock == nil {
		clock = NewDeterministicClock()
	}
	return &IDGenerator{prefix: prefix, clock: clock}
}

// Generate returns the next ID.
func (g *IDGenerator) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.clock.Next())
}

// Reset restarts the numbering.
func (g *IDGenerator) Reset() {
	g.clock.Reset()
}
