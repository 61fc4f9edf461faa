package param

import (
	"math"
	"sync/atomic"
)

// Cell stores a parameter's plain and normalized value as one packed
// atomic word. Both halves are published by a single store, so a reader can
// never pair a plain value with a normalized value from a different write.
//
// The zero Cell holds (0, 0). Cells are safe for any number of concurrent
// writers and readers and never allocate.
type Cell struct {
	bits atomic.Uint64
}

func pack(plain, normalized float32) uint64 {
	return uint64(math.Float32bits(plain))<<32 | uint64(math.Float32bits(normalized))
}

func unpack(bits uint64) (plain, normalized float32) {
	return math.Float32frombits(uint32(bits >> 32)), math.Float32frombits(uint32(bits))
}

// Store publishes a new plain/normalized pair.
func (c *Cell) Store(plain, normalized float32) {
	c.bits.Store(pack(plain, normalized))
}

// Load returns the most recently published pair.
func (c *Cell) Load() (plain, normalized float32) {
	return unpack(c.bits.Load())
}
