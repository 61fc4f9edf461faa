package param

import (
	"fmt"
	"math"
)

// RangeKind selects how plain values map onto the normalized [0, 1] range.
type RangeKind int

const (
	// RangeLinear maps plain values linearly.
	RangeLinear RangeKind = iota
	// RangeSkewed applies a power curve; factors below 1 give more resolution
	// near the minimum, which suits frequencies and times.
	RangeSkewed
	// RangeSymmetricalSkewed skews both halves around a center value.
	RangeSymmetricalSkewed
	// RangeInt is a discrete integer range.
	RangeInt
	// RangeEnum is a discrete list of named values stored as their index.
	RangeEnum
	// RangeBool is a two state range.
	RangeBool
)

// Range describes a parameter's value range. Ranges are immutable once the
// parameter has been declared.
type Range struct {
	Kind   RangeKind
	Min    float64
	Max    float64
	Factor float64  // skew factor for the skewed kinds
	Center float64  // center value for RangeSymmetricalSkewed
	Names  []string // value names for RangeEnum
}

// Linear returns a continuous linear range.
func Linear(min, max float64) Range {
	return Range{Kind: RangeLinear, Min: min, Max: max}
}

// Skewed returns a continuous range with a power curve.
func Skewed(min, max, factor float64) Range {
	return Range{Kind: RangeSkewed, Min: min, Max: max, Factor: factor}
}

// SymmetricalSkewed returns a continuous range skewed around center.
func SymmetricalSkewed(min, max, factor, center float64) Range {
	return Range{Kind: RangeSymmetricalSkewed, Min: min, Max: max, Factor: factor, Center: center}
}

// IntRange returns a discrete integer range.
func IntRange(min, max int) Range {
	return Range{Kind: RangeInt, Min: float64(min), Max: float64(max)}
}

// Enum returns a discrete range over the given names.
func Enum(names ...string) Range {
	return Range{Kind: RangeEnum, Min: 0, Max: float64(len(names) - 1), Names: names}
}

// BoolRange returns an off/on range.
func BoolRange() Range {
	return Range{Kind: RangeBool, Min: 0, Max: 1}
}

// SkewFactor converts a skew exponent into a factor usable with Skewed:
// negative exponents skew towards the minimum.
func SkewFactor(exponent float64) float64 {
	return math.Pow(2, exponent)
}

// Discrete reports whether plain values are snapped to integers.
func (r Range) Discrete() bool {
	return r.Kind == RangeInt || r.Kind == RangeEnum || r.Kind == RangeBool
}

// Steps returns the number of discrete steps, or 0 for continuous ranges.
func (r Range) Steps() int32 {
	if !r.Discrete() {
		return 0
	}
	return int32(r.Max - r.Min)
}

// Validate checks that the range can be used for a parameter.
func (r Range) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("range bounds must be finite")
	}
	switch r.Kind {
	case RangeEnum:
		if len(r.Names) < 2 {
			return fmt.Errorf("enum range needs at least two names, got %d", len(r.Names))
		}
	case RangeSkewed, RangeSymmetricalSkewed:
		if !(r.Factor > 0) {
			return fmt.Errorf("skew factor must be positive, got %g", r.Factor)
		}
		if r.Kind == RangeSymmetricalSkewed && (r.Center <= r.Min || r.Center >= r.Max) {
			return fmt.Errorf("skew center %g outside (%g, %g)", r.Center, r.Min, r.Max)
		}
	}
	if r.Max <= r.Min {
		return fmt.Errorf("range max %g must be greater than min %g", r.Max, r.Min)
	}
	return nil
}

// Clamp limits plain to the range and snaps discrete values.
func (r Range) Clamp(plain float64) float64 {
	if math.IsNaN(plain) {
		plain = r.Min
	}
	plain = math.Max(r.Min, math.Min(r.Max, plain))
	if r.Discrete() {
		plain = math.Round(plain)
	}
	return plain
}

// Normalize maps a plain value onto [0, 1]. Out of range values are clamped.
func (r Range) Normalize(plain float64) float64 {
	plain = r.Clamp(plain)
	span := r.Max - r.Min
	if span <= 0 {
		return 0
	}
	unscaled := (plain - r.Min) / span

	switch r.Kind {
	case RangeSkewed:
		return math.Pow(unscaled, r.Factor)
	case RangeSymmetricalSkewed:
		center := (r.Center - r.Min) / span
		if unscaled > center {
			scaled := (unscaled - center) / (1 - center)
			return math.Pow(scaled, r.Factor)*0.5 + 0.5
		}
		inverted := 1 - unscaled/center
		return (1 - math.Pow(inverted, r.Factor)) * 0.5
	default:
		return unscaled
	}
}

// Denormalize maps a normalized value back onto the plain range.
func (r Range) Denormalize(normalized float64) float64 {
	if math.IsNaN(normalized) {
		normalized = 0
	}
	normalized = math.Max(0, math.Min(1, normalized))
	span := r.Max - r.Min

	var unscaled float64
	switch r.Kind {
	case RangeSkewed:
		unscaled = math.Pow(normalized, 1/r.Factor)
	case RangeSymmetricalSkewed:
		center := (r.Center - r.Min) / span
		if normalized > 0.5 {
			scaled := (normalized - 0.5) * 2
			unscaled = math.Pow(scaled, 1/r.Factor)*(1-center) + center
		} else {
			inverted := 1 - normalized*2
			unscaled = (1 - math.Pow(inverted, 1/r.Factor)) * center
		}
	case RangeBool:
		if normalized >= 0.5 {
			return r.Max
		}
		return r.Min
	default:
		unscaled = normalized
	}

	plain := r.Min + unscaled*span
	if r.Discrete() {
		plain = math.Round(plain)
	}
	return math.Max(r.Min, math.Min(r.Max, plain))
}
