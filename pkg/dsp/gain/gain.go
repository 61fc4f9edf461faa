// Package gain converts between decibels and linear amplitude and applies
// gain to sample buffers.
package gain

import "math"

const (
	// MinusInfinityDB is the level treated as silence.
	MinusInfinityDB = -100.0
	// MinusInfinityGain is the linear amplitude of MinusInfinityDB.
	MinusInfinityGain = 1e-5
)

// DbToLinear converts decibels to linear amplitude. Levels at or below
// MinusInfinityDB are silence.
func DbToLinear(db float64) float64 {
	if db <= MinusInfinityDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// LinearToDb converts linear amplitude to decibels, floored at
// MinusInfinityDB.
func LinearToDb(linear float64) float64 {
	if linear <= MinusInfinityGain {
		return MinusInfinityDB
	}
	return 20 * math.Log10(linear)
}

// Apply multiplies buf by gain in place.
func Apply(buf []float32, gain float32) {
	for i := range buf {
		buf[i] *= gain
	}
}

// ApplyRamp multiplies buf by the per-sample gains in ramp, which must be at
// least as long.
func ApplyRamp(buf, ramp []float32) {
	ramp = ramp[:len(buf)]
	for i := range buf {
		buf[i] *= ramp[i]
	}
}
