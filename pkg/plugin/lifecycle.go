package plugin

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

// Phase is a wrapper lifecycle state.
//
//	Uninitialized -> Initialized -> Activated <-> Deactivated -> Destroyed
//
// Uninitialized and Initialized may also go straight to Destroyed.
type Phase int32

const (
	PhaseUninitialized Phase = iota
	PhaseInitialized
	PhaseActivated
	PhaseDeactivated
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseActivated:
		return "activated"
	case PhaseDeactivated:
		return "deactivated"
	case PhaseDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// Setup is the processing configuration negotiated with the host.
type Setup struct {
	SampleRate   float64
	MaxBlockSize int
	// Layout is the main channel layout. The zero value selects the
	// plugin's default layout.
	Layout bus.Layout
}

func (s Setup) String() string {
	return fmt.Sprintf("%g Hz, %d samples, %s", s.SampleRate, s.MaxBlockSize, s.Layout)
}

var errInvalidSetup = errors.New("invalid processing setup")

// Phase returns the current lifecycle phase. Safe from any thread.
func (w *Wrapper) Phase() Phase {
	return Phase(w.phase.Load())
}

// Setup returns the most recently negotiated processing setup.
func (w *Wrapper) Setup() Setup {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setup
}

// Initialize prepares the plugin for setup. Valid only once, from
// Uninitialized. A plugin that fails returns an *InitError and the wrapper
// stays Uninitialized.
func (w *Wrapper) Initialize(setup Setup) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ph := w.Phase(); ph != PhaseUninitialized {
		return w.violation("initialize", "")
	}
	if err := w.configure(setup); err != nil {
		return err
	}
	w.snapOnActivate = true
	w.phase.Store(int32(PhaseInitialized))
	w.log.Info("plugin initialized", zap.Stringer("setup", w.setup))
	return nil
}

// Activate starts processing. Valid from Initialized and Deactivated;
// activating twice is a contract violation.
func (w *Wrapper) Activate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activateLocked()
}

func (w *Wrapper) activateLocked() error {
	ph := w.Phase()
	if ph != PhaseInitialized && ph != PhaseDeactivated {
		return w.violation("activate", "")
	}

	w.queue.Reset()
	w.out.Reset()
	if w.snapOnActivate {
		w.store.SnapSmoothers()
		w.snapOnActivate = false
	} else {
		w.store.ResetSmoothers()
	}
	if r, ok := w.plugin.(Resetter); ok {
		r.Reset()
	}
	w.faulted.Store(false)
	w.lastPanic.Store(nil)
	w.status.Store(packStatus(process.Normal))

	w.phase.Store(int32(PhaseActivated))
	w.log.Debug("plugin activated")
	return nil
}

// Deactivate stops processing. Parameter changes still queued for the audio
// thread are applied to the parameters before it returns.
func (w *Wrapper) Deactivate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deactivateLocked()
}

func (w *Wrapper) deactivateLocked() error {
	if ph := w.Phase(); ph != PhaseActivated {
		return w.violation("deactivate", "")
	}

	w.phase.Store(int32(PhaseDeactivated))
	// a call that saw Activated before the store runs to completion
	for w.inProcess.Load() {
		runtime.Gosched()
	}

	w.queue.Flush(func(e event.Event) {
		if e.Kind == event.KindParamChange {
			w.applyParam(e)
		}
	})

	if reason := w.lastPanic.Load(); reason != nil {
		w.log.Error("plugin panicked while processing", zap.String("panic", *reason))
	} else if w.faulted.Load() {
		w.log.Warn("plugin reported a processing error")
	}
	w.log.Debug("plugin deactivated")
	return nil
}

// Reconfigure applies a new processing setup. While Activated it runs a full
// Deactivate, Initialize, Activate cycle, and smoothers restart idle at their
// current values. If the plugin rejects the setup the wrapper is left
// Deactivated with the error.
func (w *Wrapper) Reconfigure(setup Setup) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch ph := w.Phase(); ph {
	case PhaseActivated:
		if err := w.deactivateLocked(); err != nil {
			return err
		}
		if err := w.configure(setup); err != nil {
			return err
		}
		return w.activateLocked()
	case PhaseInitialized, PhaseDeactivated:
		return w.configure(setup)
	default:
		return w.violation("reconfigure", "")
	}
}

// Destroy releases the plugin. Valid from every phase except Activated and
// Destroyed.
func (w *Wrapper) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.Phase() {
	case PhaseActivated, PhaseDestroyed:
		return w.violation("destroy", "")
	}
	if t, ok := w.plugin.(Terminator); ok {
		t.Terminate()
	}
	w.phase.Store(int32(PhaseDestroyed))
	w.log.Info("plugin destroyed")
	return nil
}

// configure validates setup, initializes the plugin for it and sizes every
// buffer the audio thread will use. Control thread, not processing.
func (w *Wrapper) configure(setup Setup) error {
	buses := w.plugin.Buses()
	if setup.Layout == (bus.Layout{}) {
		setup.Layout = buses.MainLayout()
	}

	initErr := func(err error) error {
		return &InitError{SampleRate: setup.SampleRate, MaxBlockSize: setup.MaxBlockSize, Err: err}
	}
	switch {
	case setup.SampleRate <= 0 || math.IsNaN(setup.SampleRate) || math.IsInf(setup.SampleRate, 0):
		return initErr(fmt.Errorf("%w: sample rate %g", errInvalidSetup, setup.SampleRate))
	case setup.MaxBlockSize <= 0:
		return initErr(fmt.Errorf("%w: max block size %d", errInvalidSetup, setup.MaxBlockSize))
	}
	if err := setup.Layout.Validate(); err != nil {
		return initErr(fmt.Errorf("%w: %v", errInvalidSetup, err))
	}
	if !buses.Supports(setup.Layout) {
		return initErr(fmt.Errorf("%w: %s", ErrUnsupportedLayout, setup.Layout))
	}
	if a, ok := w.plugin.(BusConfigAcceptor); ok && !a.AcceptsLayout(setup.Layout) {
		return initErr(fmt.Errorf("%w: %s refused by plugin", ErrUnsupportedLayout, setup.Layout))
	}

	if err := w.plugin.Initialize(setup.SampleRate, setup.MaxBlockSize); err != nil {
		w.log.Warn("plugin initialization failed", zap.Stringer("setup", setup), zap.Error(err))
		return initErr(err)
	}

	w.setup = setup
	w.ctx = newContext(setup, w.out).CountDropsInto(&w.droppedOutput)
	w.store.SetSampleRate(setup.SampleRate)
	w.latency = 0
	if l, ok := w.plugin.(LatencyReporter); ok {
		w.latency = l.LatencySamples()
	}
	return nil
}

func (w *Wrapper) violation(op, detail string) error {
	w.violations.Add(1)
	return &ContractViolation{Op: op, Phase: w.Phase(), Detail: detail}
}
