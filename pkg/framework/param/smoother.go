// Package param provides parameter management for audio plugins.
package param

import (
	"math"
)

// SmoothingStyle selects the interpolation curve used by a Smoother.
type SmoothingStyle int

const (
	// SmoothNone jumps to the target immediately.
	SmoothNone SmoothingStyle = iota
	// SmoothLinear moves by a constant delta per sample.
	SmoothLinear
	// SmoothExponential moves by a constant ratio per sample, which sounds
	// even for frequencies and gains. Falls back to linear when the start or
	// target is zero or the two have different signs.
	SmoothExponential
)

// expEpsilon is the relative distance at which an exponential ramp snaps.
const expEpsilon = 1e-6

// Smoothing is a parameter's smoothing policy. Samples, when set, takes
// precedence over Millis.
type Smoothing struct {
	Style   SmoothingStyle
	Millis  float64
	Samples int
}

// NoSmoothing disables smoothing.
func NoSmoothing() Smoothing { return Smoothing{} }

// LinearMs returns a linear ramp lasting ms milliseconds.
func LinearMs(ms float64) Smoothing { return Smoothing{Style: SmoothLinear, Millis: ms} }

// ExponentialMs returns an exponential ramp lasting ms milliseconds.
func ExponentialMs(ms float64) Smoothing { return Smoothing{Style: SmoothExponential, Millis: ms} }

// LinearSamples returns a linear ramp lasting n samples.
func LinearSamples(n int) Smoothing { return Smoothing{Style: SmoothLinear, Samples: n} }

// Smoother interpolates from its current value to a target over a fixed
// number of samples. A new target always restarts the ramp from the current
// interpolated value. Smoother is not safe for concurrent use; it lives on
// the audio thread and never allocates.
type Smoother struct {
	policy     Smoothing
	sampleRate float64

	current float64
	target  float64
	step    float64 // delta for linear ramps, ratio for exponential ones
	ratio   bool
	left    int

	ticked int // samples consumed by the plugin since the last TickAll
}

// NewSmoother creates a smoother idle at value.
func NewSmoother(policy Smoothing, value float64) *Smoother {
	s := &Smoother{policy: policy}
	s.Reset(value)
	return s
}

// SetSampleRate sets the rate used to convert millisecond durations.
func (s *Smoother) SetSampleRate(sampleRate float64) {
	s.sampleRate = sampleRate
}

// Steps returns the ramp length in samples for the current policy.
func (s *Smoother) Steps() int {
	switch {
	case s.policy.Style == SmoothNone:
		return 0
	case s.policy.Samples > 0:
		return s.policy.Samples
	case s.sampleRate <= 0:
		return 0
	}
	return int(math.Round(s.sampleRate * s.policy.Millis / 1000))
}

// SetTarget starts a ramp towards target from the current value.
func (s *Smoother) SetTarget(target float64) {
	if target == s.target && (s.left > 0 || s.current == target) {
		return
	}
	s.target = target

	n := s.Steps()
	if n <= 0 || s.current == target {
		s.current = target
		s.left = 0
		return
	}
	s.left = n

	if s.policy.Style == SmoothExponential && s.current != 0 && target != 0 &&
		(s.current > 0) == (target > 0) {
		s.ratio = true
		s.step = math.Exp(math.Log(target/s.current) / float64(n))
		return
	}
	s.ratio = false
	s.step = (target - s.current) / float64(n)
}

// Next advances one sample and returns the new value.
func (s *Smoother) Next() float32 {
	s.ticked++
	if s.left == 0 {
		return float32(s.current)
	}
	s.left--
	switch {
	case s.left == 0:
		s.current = s.target
	case s.ratio:
		s.current *= s.step
		s.snap()
	default:
		s.current += s.step
	}
	return float32(s.current)
}

// NextBlock fills dst with consecutive smoothed values.
func (s *Smoother) NextBlock(dst []float32) {
	if s.left == 0 {
		v := float32(s.current)
		for i := range dst {
			dst[i] = v
		}
		s.ticked += len(dst)
		return
	}
	for i := range dst {
		dst[i] = s.Next()
	}
}

// Advance skips n samples in constant time.
func (s *Smoother) Advance(n int) {
	s.ticked += n
	s.advance(n)
}

func (s *Smoother) advance(n int) {
	if n <= 0 || s.left == 0 {
		return
	}
	if n >= s.left {
		s.current = s.target
		s.left = 0
		return
	}
	s.left -= n
	if s.ratio {
		s.current *= math.Pow(s.step, float64(n))
		s.snap()
		return
	}
	s.current += s.step * float64(n)
}

func (s *Smoother) snap() {
	if math.Abs(s.current-s.target) <= expEpsilon*math.Abs(s.target) {
		s.current = s.target
		s.left = 0
	}
}

// tick consumes the n-sample block budget, skipping the samples the plugin
// did not pull itself.
func (s *Smoother) tick(n int) {
	if rest := n - s.ticked; rest > 0 {
		s.advance(rest)
	}
	s.ticked = 0
}

// Reset makes the smoother idle at value.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.left = 0
	s.ticked = 0
}

// Current returns the current interpolated value.
func (s *Smoother) Current() float64 { return s.current }

// Target returns the value the smoother is heading to.
func (s *Smoother) Target() float64 { return s.target }

// IsSmoothing returns true if the smoother is currently ramping.
func (s *Smoother) IsSmoothing() bool { return s.left > 0 }

// StepsLeft returns the number of samples until the target is reached.
func (s *Smoother) StepsLeft() int { return s.left }
