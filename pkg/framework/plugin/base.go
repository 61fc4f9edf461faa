// Package plugin provides plugin metadata and base types that remove
// boilerplate from plugin implementations.
package plugin

import (
	"github.com/justyntemme/plugkit/pkg/framework/bus"
)

// Base provides default implementations of the lifecycle and state methods
// of the plugin contract. Embed it and add DeclareParameters and Process.
type Base struct {
	info         Info
	buses        *bus.Configuration
	sampleRate   float64
	maxBlockSize int

	// Optional callbacks for customization
	onInitialize func(sampleRate float64, maxBlockSize int) error
	onReset      func()
}

// NewBase creates a base with the given bus configuration. A nil
// configuration defaults to a stereo effect.
func NewBase(info Info, buses *bus.Configuration) *Base {
	if buses == nil {
		buses = bus.NewEffectStereo()
	}
	return &Base{info: info, buses: buses}
}

// Info returns the plugin metadata.
func (b *Base) Info() Info { return b.info }

// Buses returns the bus configuration.
func (b *Base) Buses() *bus.Configuration { return b.buses }

// Initialize records the processing setup and runs the OnInitialize callback.
func (b *Base) Initialize(sampleRate float64, maxBlockSize int) error {
	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize

	if b.onInitialize != nil {
		return b.onInitialize(sampleRate, maxBlockSize)
	}
	return nil
}

// Reset runs the OnReset callback. The wrapper calls it on every activation.
func (b *Base) Reset() {
	if b.onReset != nil {
		b.onReset()
	}
}

// SaveState returns no extra state.
func (b *Base) SaveState() ([]byte, error) { return nil, nil }

// LoadState ignores extra state.
func (b *Base) LoadState(extra []byte) error { return nil }

// SampleRate returns the current sample rate
func (b *Base) SampleRate() float64 { return b.sampleRate }

// MaxBlockSize returns the largest block the host will process.
func (b *Base) MaxBlockSize() int { return b.maxBlockSize }

// OnInitialize sets a callback for initialization
func (b *Base) OnInitialize(fn func(sampleRate float64, maxBlockSize int) error) {
	b.onInitialize = fn
}

// OnReset sets a callback for when the processor should clear its DSP state
func (b *Base) OnReset(fn func()) {
	b.onReset = fn
}
