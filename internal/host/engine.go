// Package host is a reference host adapter. It drives a plugin wrapper the
// way a host application would: it negotiates a setup, walks the lifecycle,
// delivers automation with sample offsets and renders audio either offline
// to WAV or to a sound device.
package host

import (
	"errors"
	"fmt"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/process"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

// ErrDestroyed is returned when asked to drive a destroyed wrapper.
var ErrDestroyed = errors.New("host: plugin is destroyed")

// Prepare brings w into the Activated phase for setup, reconfiguring it if
// it was set up differently before.
func Prepare(w *plugin.Wrapper, setup plugin.Setup) error {
	switch w.Phase() {
	case plugin.PhaseUninitialized:
		if err := w.Initialize(setup); err != nil {
			return err
		}
	case plugin.PhaseInitialized, plugin.PhaseDeactivated:
		if !matches(w.Setup(), setup) {
			if err := w.Reconfigure(setup); err != nil {
				return err
			}
		}
	case plugin.PhaseActivated:
		if matches(w.Setup(), setup) {
			return nil
		}
		return w.Reconfigure(setup)
	case plugin.PhaseDestroyed:
		return ErrDestroyed
	}
	return w.Activate()
}

// matches reports whether the negotiated setup cur satisfies want. A zero
// layout in want accepts whatever layout was negotiated.
func matches(cur, want plugin.Setup) bool {
	if want.Layout == (bus.Layout{}) {
		want.Layout = cur.Layout
	}
	return cur == want
}

// engine renders consecutive blocks from a source and a timeline.
type engine struct {
	w      *plugin.Wrapper
	sr     float64
	source [][]float32 // nil for silence
	loop   bool
	tl     Timeline

	frame  int64
	cursor int
	ins    [][]float32
	outs   [][]float32
	events []event.Event
	data   plugin.ProcessData
}

func newEngine(w *plugin.Wrapper, source [][]float32, tl Timeline, loop bool) *engine {
	setup := w.Setup()
	l := setup.Layout
	e := &engine{
		w:      w,
		sr:     setup.SampleRate,
		loop:   loop,
		tl:     tl,
		ins:    make([][]float32, l.Inputs),
		outs:   make([][]float32, l.Outputs),
		events: make([]event.Event, 0, 64),
	}
	if len(source) > 0 && l.Inputs > 0 {
		e.source = fitChannels(source, int(l.Inputs), len(source[0]))
	}
	for ch := range e.ins {
		e.ins[ch] = make([]float32, setup.MaxBlockSize)
	}
	for ch := range e.outs {
		e.outs[ch] = make([]float32, setup.MaxBlockSize)
	}
	return e
}

// sourceFrames returns the source length, or 0 without a source.
func (e *engine) sourceFrames() int64 {
	if len(e.source) == 0 {
		return 0
	}
	return int64(len(e.source[0]))
}

// step renders n frames into e.outs.
func (e *engine) step(n int) (process.Status, error) {
	e.fill(n)
	e.events, e.cursor = e.tl.Window(e.events[:0], e.cursor, e.frame, n)

	e.data = plugin.ProcessData{
		Inputs:     e.ins,
		Outputs:    e.outs,
		NumSamples: n,
		Events:     e.events,
		Transport: process.Transport{
			Tempo:        120,
			TimeSigNum:   4,
			TimeSigDenom: 4,
			Playing:      true,
			Position:     e.frame,
		},
	}
	e.data.Transport.PositionBeats = float64(e.frame) / e.data.Transport.SamplesPerBeat(e.sr)

	status, err := e.w.Process(&e.data)
	if err != nil {
		return status, fmt.Errorf("process at frame %d: %w", e.frame, err)
	}
	e.frame += int64(n)
	return status, nil
}

func (e *engine) fill(n int) {
	total := e.sourceFrames()
	for ch, buf := range e.ins {
		buf = buf[:n]
		if total == 0 {
			clear(buf)
			continue
		}
		src := e.source[ch]
		for i := range buf {
			pos := e.frame + int64(i)
			switch {
			case pos < total:
				buf[i] = src[pos]
			case e.loop:
				buf[i] = src[pos%total]
			default:
				buf[i] = 0
			}
		}
	}
}
