package host

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/debug"
	"github.com/justyntemme/plugkit/pkg/framework/process"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

// DefaultMaxTail bounds the tail rendered after the input ends.
const DefaultMaxTail = 10 * time.Second

// Options configures an offline render.
type Options struct {
	SampleRate float64
	BlockSize  int
	// Layout is the channel layout to negotiate. Zero uses the plugin's
	// default.
	Layout bus.Layout
	// MaxTail bounds the tail rendered after the input. Zero uses
	// DefaultMaxTail, a negative value disables tails.
	MaxTail time.Duration
	Logger  *zap.Logger
}

// Result is the output of an offline render.
type Result struct {
	Output Audio
	Blocks int
	// Tail is the number of frames rendered after the input ended.
	Tail     int
	Analysis []debug.AnalysisResult
	Meter    debug.MeterSnapshot
}

// Render processes in through w with the automation in tl and returns the
// output, including the tail the plugin reports once the input ends. w is
// brought to Activated for the render and left Deactivated.
func Render(ctx context.Context, w *plugin.Wrapper, in Audio, tl Timeline, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = debug.Named("host")
	}
	sr := opts.SampleRate
	if sr == 0 {
		sr = float64(in.SampleRate)
	}
	setup := plugin.Setup{SampleRate: sr, MaxBlockSize: opts.BlockSize, Layout: opts.Layout}
	if err := Prepare(w, setup); err != nil {
		return nil, fmt.Errorf("prepare plugin: %w", err)
	}
	defer func() {
		if err := w.Deactivate(); err != nil {
			log.Warn("deactivate after render", zap.Error(err))
		}
	}()

	setup = w.Setup()
	e := newEngine(w, in.Channels, tl, false)
	total := in.Frames()
	maxTail := tailFrames(opts.MaxTail, setup.SampleRate)

	out := Audio{SampleRate: int(setup.SampleRate), Channels: make([][]float32, setup.Layout.Outputs)}
	for ch := range out.Channels {
		out.Channels[ch] = make([]float32, 0, total)
	}

	res := &Result{}
	start := time.Now()
	tail, tailWant := 0, -1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := setup.MaxBlockSize
		if remaining := int64(total) - e.frame; remaining > 0 {
			n = min(n, int(remaining))
		} else {
			// The tail length is fixed by the status of the last input block.
			if tailWant < 0 {
				tailWant = min(w.TailSamples(), maxTail)
			}
			if tail >= tailWant {
				break
			}
			n = min(n, tailWant-tail)
			tail += n
		}

		status, err := e.step(n)
		if err != nil {
			return nil, err
		}
		if status.Kind == process.StatusError {
			log.Debug("plugin reported an error", zap.Int64("frame", e.frame), zap.Stringer("status", status))
		}
		for ch := range out.Channels {
			out.Channels[ch] = append(out.Channels[ch], e.outs[ch][:n]...)
		}
		res.Blocks++
	}

	res.Output = out
	res.Tail = tail
	res.Meter = w.Meter().Snapshot()
	res.Analysis = make([]debug.AnalysisResult, len(out.Channels))
	for ch, samples := range out.Channels {
		res.Analysis[ch] = debug.AnalyzeBuffer(samples)
		debug.LogBufferStats(log, samples, "out"+strconv.Itoa(ch))
	}
	log.Info("render finished",
		zap.Int("frames", out.Frames()),
		zap.Int("blocks", res.Blocks),
		zap.Int("tail", tail),
		zap.Duration("elapsed", time.Since(start)),
		zap.Float64("peak_load", res.Meter.PeakLoad),
	)
	return res, nil
}

func tailFrames(d time.Duration, sampleRate float64) int {
	switch {
	case d < 0:
		return 0
	case d == 0:
		d = DefaultMaxTail
	}
	return int(d.Seconds() * sampleRate)
}
