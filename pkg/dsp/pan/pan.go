// Package pan positions and balances stereo signals.
package pan

import "math"

// Law selects how a mono source is spread across two channels.
type Law int

const (
	// Linear keeps the summed amplitude constant, dipping 6 dB at center.
	Linear Law = iota
	// ConstantPower keeps the summed power constant, dipping 3 dB at center.
	ConstantPower
)

// Gains returns the left and right gains for pan in [-1, 1], where -1 is
// hard left.
func Gains(pan float32, law Law) (left, right float32) {
	pan = clamp(pan)
	if law == Linear {
		return (1 - pan) / 2, (1 + pan) / 2
	}
	angle := float64(pan+1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

// BalanceGains returns the channel gains for balance in [-1, 1]. The channel
// being favoured stays at unity and the other is attenuated linearly.
func BalanceGains(balance float32) (left, right float32) {
	balance = clamp(balance)
	switch {
	case balance < 0:
		return 1, 1 + balance
	case balance > 0:
		return 1 - balance, 1
	}
	return 1, 1
}

// Balance applies BalanceGains to a stereo pair in place.
func Balance(left, right []float32, balance float32) {
	lg, rg := BalanceGains(balance)
	if lg == 1 && rg == 1 {
		return
	}
	n := min(len(left), len(right))
	for i := 0; i < n; i++ {
		left[i] *= lg
		right[i] *= rg
	}
}

// Mono spreads src into left and right with law.
func Mono(src []float32, pan float32, law Law, left, right []float32) {
	lg, rg := Gains(pan, law)
	n := min(len(src), len(left), len(right))
	for i := 0; i < n; i++ {
		left[i] = src[i] * lg
		right[i] = src[i] * rg
	}
}

func clamp(v float32) float32 {
	return max(-1, min(1, v))
}
