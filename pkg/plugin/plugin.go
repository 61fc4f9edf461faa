// Package plugin provides the plugin contract and the wrapper that drives a
// plugin through its lifecycle on behalf of a host adapter.
package plugin

import (
	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/param"
	"github.com/justyntemme/plugkit/pkg/framework/plugin"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

// Plugin is the main interface that users implement
type Plugin interface {
	// Info returns plugin metadata
	Info() plugin.Info

	// DeclareParameters returns the plugin's parameters in display order.
	// Called once, when the wrapper is created.
	DeclareParameters() []*param.Parameter

	// Buses returns the bus configuration
	Buses() *bus.Configuration

	// Initialize prepares the plugin for a sample rate and maximum block
	// size. It may allocate. Called before the first activation and again
	// whenever the processing setup changes.
	Initialize(sampleRate float64, maxBlockSize int) error

	// Process renders one block in place: buf holds the input on entry and
	// must hold the output on return. ZERO ALLOCATIONS, no locks, no logging.
	Process(buf *process.Buffer, ctx *process.Context) process.Status

	// SaveState returns opaque state beyond parameter values. It may run
	// while the plugin is processing.
	SaveState() ([]byte, error)

	// LoadState restores what SaveState returned. It never runs
	// concurrently with Process.
	LoadState(extra []byte) error
}

// Resetter is implemented by plugins with DSP state to clear on activation.
type Resetter interface {
	Reset()
}

// BusConfigAcceptor is implemented by plugins that refuse some channel
// layouts their bus configuration would otherwise allow.
type BusConfigAcceptor interface {
	AcceptsLayout(layout bus.Layout) bool
}

// LatencyReporter is implemented by plugins that delay their output.
type LatencyReporter interface {
	LatencySamples() int
}

// Terminator is implemented by plugins that hold resources to release when
// the wrapper is destroyed.
type Terminator interface {
	Terminate()
}
