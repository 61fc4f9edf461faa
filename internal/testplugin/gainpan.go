// Package testplugin provides a small gain and balance plugin used by the
// wrapper tests, the reference host and the plughost CLI.
package testplugin

import (
	"errors"
	"sync/atomic"

	dsppan "github.com/justyntemme/plugkit/pkg/dsp/pan"
	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/param"
	fwplugin "github.com/justyntemme/plugkit/pkg/framework/plugin"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

// ID is the plugin id of GainPan.
const ID = "io.github.justyntemme.plugkit.gainpan"

// Parameter keys.
const (
	KeyGain = "gain"
	KeyPan  = "pan"
	KeyMode = "mode"
)

// Channel modes.
const (
	ModeStereo = iota
	ModeMono
	ModeSwap
)

// ErrInduced is returned by Initialize when FailInit is set.
var ErrInduced = errors.New("testplugin: induced failure")

// Block records one call into Process.
type Block struct {
	Offset  int32
	Samples int
	Gain    float64 // gain target at the start of the block
	Events  []event.Event
}

// GainPan scales a stereo signal by a smoothed linear gain and balances it
// between the channels. The fields below the parameters are hooks for tests
// and must be set before the plugin is wrapped.
type GainPan struct {
	*fwplugin.Base

	gain *param.Parameter
	pan  *param.Parameter
	mode *param.Parameter

	// FailInit makes Initialize return ErrInduced.
	FailInit bool
	// PanicOn panics in the nth Process call of the plugin's life, counting
	// from 1.
	PanicOn int
	// Fail makes Process report process.Failed.
	Fail bool
	// Tail is reported as the tail length while non-zero.
	Tail int
	// Latency is reported to the host.
	Latency int
	// EchoNotes sends every received note event back to the host.
	EchoNotes bool
	// Label is persisted as the extra state.
	Label string

	calls  int
	blocks []Block
	events []event.Event
	notes  atomic.Uint64
	resets atomic.Uint64
}

// New returns a stereo GainPan.
func New() *GainPan {
	p := &GainPan{
		Base: fwplugin.NewBase(fwplugin.Info{
			ID:       ID,
			Name:     "GainPan",
			Version:  "1.0.0",
			Vendor:   "plugkit",
			Category: "Fx",
		}, bus.NewEffectStereo()),
	}
	p.OnInitialize(func(float64, int) error {
		if p.FailInit {
			return ErrInduced
		}
		return nil
	})
	p.OnReset(func() {
		p.resets.Add(1)
	})
	return p
}

// Record keeps the next n Process calls for inspection. Call it while the
// plugin is not processing.
func (p *GainPan) Record(n int) {
	p.blocks = make([]Block, 0, n)
	p.events = make([]event.Event, 0, n*8)
}

// Blocks returns the recorded Process calls.
func (p *GainPan) Blocks() []Block { return p.blocks }

// Notes returns how many note-on events reached Process.
func (p *GainPan) Notes() uint64 { return p.notes.Load() }

// Resets returns how many times the plugin was reset.
func (p *GainPan) Resets() uint64 { return p.resets.Load() }

// DeclareParameters declares gain, pan and mode.
func (p *GainPan) DeclareParameters() []*param.Parameter {
	p.gain = param.LevelParameter(KeyGain, "Gain", 12).Build()
	p.pan = param.PanParameter(KeyPan, "Pan").Build()
	p.mode = param.Choice(KeyMode, "Mode", []param.ChoiceOption{
		{Name: "Stereo"},
		{Name: "Mono", Aliases: []string{"sum"}},
		{Name: "Swap"},
	}).Build()
	return []*param.Parameter{p.gain, p.pan, p.mode}
}

// LatencySamples reports Latency.
func (p *GainPan) LatencySamples() int { return p.Latency }

// SaveState stores the label.
func (p *GainPan) SaveState() ([]byte, error) {
	if p.Label == "" {
		return nil, nil
	}
	return []byte(p.Label), nil
}

// LoadState restores the label.
func (p *GainPan) LoadState(extra []byte) error {
	p.Label = string(extra)
	return nil
}

// Process applies the gain per sample and the balance per block.
func (p *GainPan) Process(buf *process.Buffer, ctx *process.Context) process.Status {
	p.calls++
	if p.PanicOn > 0 && p.calls == p.PanicOn {
		panic("testplugin: induced panic")
	}
	if p.Fail {
		return process.Failed
	}

	gain := p.gain.Smoothed()
	p.record(buf, ctx, gain.Target())

	for _, e := range ctx.Events {
		if e.Kind == event.KindNoteOn {
			p.notes.Add(1)
		}
		if p.EchoNotes && (e.Kind == event.KindNoteOn || e.Kind == event.KindNoteOff) {
			ctx.Send(e)
		}
	}

	n := buf.NumSamples()
	g := ctx.WorkBuffer(n)
	gain.NextBlock(g)
	if buf.NumChannels() < 2 {
		buf.ProcessChannels(func(_ int, samples []float32) {
			for i := range samples {
				samples[i] *= g[i]
			}
		})
		return p.status()
	}

	left, right := buf.Channel(0), buf.Channel(1)
	mode := int(p.mode.Plain())
	for i := 0; i < n; i++ {
		l, r := left[i]*g[i], right[i]*g[i]
		switch mode {
		case ModeMono:
			l = (l + r) / 2
			r = l
		case ModeSwap:
			l, r = r, l
		}
		left[i], right[i] = l, r
	}
	dsppan.Balance(left, right, float32(p.pan.Smoothed().Current()))
	return p.status()
}

func (p *GainPan) record(buf *process.Buffer, ctx *process.Context, gain float64) {
	if len(p.blocks) == cap(p.blocks) {
		return
	}
	start := len(p.events)
	for _, e := range ctx.Events {
		if len(p.events) == cap(p.events) {
			break
		}
		p.events = append(p.events, e)
	}
	p.blocks = append(p.blocks, Block{
		Offset:  ctx.BlockOffset(),
		Samples: buf.NumSamples(),
		Gain:    gain,
		Events:  p.events[start:len(p.events):len(p.events)],
	})
}

func (p *GainPan) status() process.Status {
	if p.Tail > 0 {
		return process.Tail(p.Tail)
	}
	return process.Normal
}
