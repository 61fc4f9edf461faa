package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/debug"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

// DefaultLatency is the write-ahead latency between rendering and playback.
const DefaultLatency = 50 * time.Millisecond

var errFinished = errors.New("playback finished")

// Sink consumes audio from a FIFO until ctx is done.
type Sink interface {
	Run(ctx context.Context, fifo *FIFO) error
}

// PlayerOptions configures real-time playback.
type PlayerOptions struct {
	SampleRate float64
	BlockSize  int
	Layout     bus.Layout
	Latency    time.Duration
	// Loop restarts the input when it ends. Looping playback runs until
	// the context is cancelled.
	Loop    bool
	MaxTail time.Duration
	Logger  *zap.Logger
}

// Player renders through a plugin in real time into a Sink.
type Player struct {
	w    *plugin.Wrapper
	in   Audio
	tl   Timeline
	opts PlayerOptions
	log  *zap.Logger
	sink Sink
	fifo *FIFO
}

// NewPlayer creates a player for w that plays to the default output
// device. SetSink replaces the device.
func NewPlayer(w *plugin.Wrapper, in Audio, tl Timeline, opts PlayerOptions) *Player {
	if opts.Latency <= 0 {
		opts.Latency = DefaultLatency
	}
	log := opts.Logger
	if log == nil {
		log = debug.Named("player")
	}
	return &Player{w: w, in: in, tl: tl, opts: opts, log: log, sink: &Device{Logger: log}}
}

// SetSink replaces the output.
func (p *Player) SetSink(s Sink) { p.sink = s }

// Stats returns the FIFO statistics of the current or last run.
func (p *Player) Stats() FIFOStats {
	if p.fifo == nil {
		return FIFOStats{}
	}
	return p.fifo.Stats()
}

// Run plays until the input and its tail have been heard or ctx is
// cancelled. The plugin is left Deactivated.
func (p *Player) Run(ctx context.Context) error {
	sr := p.opts.SampleRate
	if sr == 0 {
		sr = float64(p.in.SampleRate)
	}
	setup := plugin.Setup{SampleRate: sr, MaxBlockSize: p.opts.BlockSize, Layout: p.opts.Layout}
	if err := Prepare(p.w, setup); err != nil {
		return fmt.Errorf("prepare plugin: %w", err)
	}
	defer func() {
		if err := p.w.Deactivate(); err != nil {
			p.log.Warn("deactivate after playback", zap.Error(err))
		}
	}()

	setup = p.w.Setup()
	p.fifo = NewFIFO(setup.SampleRate, int(setup.Layout.Outputs), p.opts.Latency)
	e := newEngine(p.w, p.in.Channels, p.tl, p.opts.Loop)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.pump(gctx, e, setup)
	})
	g.Go(func() error {
		return p.sink.Run(gctx, p.fifo)
	})

	err := g.Wait()
	st := p.fifo.Stats()
	p.log.Info("playback stopped",
		zap.Uint64("underruns", st.Underruns),
		zap.Uint64("overruns", st.Overruns),
		zap.Int64("frames", e.frame),
	)
	// Cancelling ctx is how looping playback is stopped.
	if errors.Is(err, errFinished) || ctx.Err() != nil {
		return nil
	}
	return err
}

// pump renders blocks whenever the FIFO has room for one.
func (p *Player) pump(ctx context.Context, e *engine, setup plugin.Setup) error {
	block := setup.MaxBlockSize
	wait := time.Duration(float64(block) / setup.SampleRate * float64(time.Second) / 2)
	total := e.sourceFrames()
	maxTail := tailFrames(p.opts.MaxTail, setup.SampleRate)
	tail, tailWant := 0, -1

	ticker := time.NewTicker(max(wait, time.Millisecond))
	defer ticker.Stop()
	for {
		if p.fifo.Drained() {
			return errFinished
		}
		if p.fifo.Free() < block || p.fifo.closed.Load() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n := block
		if !p.opts.Loop {
			if remaining := total - e.frame; remaining > 0 {
				n = min(n, int(remaining))
			} else {
				if tailWant < 0 {
					tailWant = min(p.w.TailSamples(), maxTail)
				}
				if tail >= tailWant {
					p.fifo.Close()
					continue
				}
				n = min(n, tailWant-tail)
				tail += n
			}
		}
		if _, err := e.step(n); err != nil {
			return err
		}
		p.fifo.Write(e.outs, n)
	}
}

// Device plays a FIFO on the default output device.
type Device struct {
	Logger *zap.Logger
}

// Run opens the default playback device and feeds it from fifo until ctx
// is done.
func (d *Device) Run(ctx context.Context, fifo *FIFO) error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		d.Logger.Debug("audio backend", zap.String("message", message))
	})
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(fifo.Channels())
	cfg.SampleRate = uint32(fifo.sampleRate)
	cfg.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			fifo.Fill(out)
		},
	})
	if err != nil {
		return fmt.Errorf("init playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}
	d.Logger.Info("playback started",
		zap.Uint32("sample_rate", device.SampleRate()),
		zap.Int("channels", fifo.Channels()),
	)
	<-ctx.Done()
	_ = device.Stop()
	return nil
}
