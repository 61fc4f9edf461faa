package debug

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// ProcessMeter measures process call durations against the real-time budget
// of each block. Record is called from the audio thread; everything else may
// be called from any thread. No method locks or allocates except Report.
type ProcessMeter struct {
	calls    atomic.Uint64
	overruns atomic.Uint64
	samples  atomic.Uint64
	total    atomic.Int64
	last     atomic.Int64
	min      atomic.Int64
	max      atomic.Int64
	load     atomic.Uint64 // float64 bits
	peakLoad atomic.Uint64 // float64 bits
}

// MeterSnapshot is a point-in-time copy of a ProcessMeter.
type MeterSnapshot struct {
	Calls    uint64
	Overruns uint64
	Samples  uint64
	Total    time.Duration
	Last     time.Duration
	Min      time.Duration
	Max      time.Duration
	// Load is the last call's duration divided by its block budget.
	Load float64
	// PeakLoad is the highest Load seen since the last reset.
	PeakLoad float64
}

// Average returns the mean call duration.
func (s MeterSnapshot) Average() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// NewProcessMeter creates a meter with no recorded calls.
func NewProcessMeter() *ProcessMeter {
	m := &ProcessMeter{}
	m.min.Store(math.MaxInt64)
	return m
}

// Budget returns the wall-clock time available to process numSamples at sampleRate.
func Budget(numSamples int, sampleRate float64) time.Duration {
	if sampleRate <= 0 || numSamples <= 0 {
		return 0
	}
	return time.Duration(float64(numSamples) / sampleRate * float64(time.Second))
}

// Record adds one process call that took elapsed to render numSamples.
// A call that exceeds its budget counts as an overrun.
func (m *ProcessMeter) Record(elapsed time.Duration, numSamples int, sampleRate float64) {
	ns := int64(elapsed)
	m.calls.Add(1)
	m.samples.Add(uint64(max(numSamples, 0)))
	m.total.Add(ns)
	m.last.Store(ns)

	for {
		cur := m.min.Load()
		if ns >= cur || m.min.CompareAndSwap(cur, ns) {
			break
		}
	}
	for {
		cur := m.max.Load()
		if ns <= cur || m.max.CompareAndSwap(cur, ns) {
			break
		}
	}

	budget := Budget(numSamples, sampleRate)
	if budget <= 0 {
		return
	}
	load := float64(elapsed) / float64(budget)
	m.load.Store(math.Float64bits(load))
	for {
		bits := m.peakLoad.Load()
		if load <= math.Float64frombits(bits) || m.peakLoad.CompareAndSwap(bits, math.Float64bits(load)) {
			break
		}
	}
	if elapsed > budget {
		m.overruns.Add(1)
	}
}

// Load returns the last call's share of its block budget (1.0 means exactly on budget).
func (m *ProcessMeter) Load() float64 {
	return math.Float64frombits(m.load.Load())
}

// Snapshot returns the current counters.
func (m *ProcessMeter) Snapshot() MeterSnapshot {
	s := MeterSnapshot{
		Calls:    m.calls.Load(),
		Overruns: m.overruns.Load(),
		Samples:  m.samples.Load(),
		Total:    time.Duration(m.total.Load()),
		Last:     time.Duration(m.last.Load()),
		Max:      time.Duration(m.max.Load()),
		Load:     math.Float64frombits(m.load.Load()),
		PeakLoad: math.Float64frombits(m.peakLoad.Load()),
	}
	if s.Calls > 0 {
		s.Min = time.Duration(m.min.Load())
	}
	return s
}

// Reset clears all counters.
func (m *ProcessMeter) Reset() {
	m.calls.Store(0)
	m.overruns.Store(0)
	m.samples.Store(0)
	m.total.Store(0)
	m.last.Store(0)
	m.min.Store(math.MaxInt64)
	m.max.Store(0)
	m.load.Store(0)
	m.peakLoad.Store(0)
}

// Report formats the meter for humans.
func (m *ProcessMeter) Report() string {
	s := m.Snapshot()
	if s.Calls == 0 {
		return "No process calls recorded"
	}

	var sb strings.Builder
	sb.WriteString("Process Meter:\n")
	fmt.Fprintf(&sb, "  Calls:     %d\n", s.Calls)
	fmt.Fprintf(&sb, "  Samples:   %d\n", s.Samples)
	fmt.Fprintf(&sb, "  Average:   %v\n", s.Average())
	fmt.Fprintf(&sb, "  Min:       %v\n", s.Min)
	fmt.Fprintf(&sb, "  Max:       %v\n", s.Max)
	fmt.Fprintf(&sb, "  Last:      %v\n", s.Last)
	fmt.Fprintf(&sb, "  Load:      %.2f%%\n", s.Load*100)
	fmt.Fprintf(&sb, "  Peak Load: %.2f%%\n", s.PeakLoad*100)
	fmt.Fprintf(&sb, "  Overruns:  %d\n", s.Overruns)
	return sb.String()
}
