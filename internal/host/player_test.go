package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/justyntemme/plugkit/pkg/plugin"
)

// captureSink pulls from the FIFO the way a device callback would.
type captureSink struct {
	period time.Duration
	frames int

	mu      sync.Mutex
	samples []float32
	heard   int
}

func (s *captureSink) Run(ctx context.Context, fifo *FIFO) error {
	buf := make([]float32, s.frames*fifo.Channels())
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n := fifo.Read(buf)
			s.mu.Lock()
			s.heard += n
			s.samples = append(s.samples, buf[:n*fifo.Channels()]...)
			s.mu.Unlock()
		}
	}
}

func TestPlayerPlaysInputAndTail(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, gp := newWrapper(t)
	gp.Tail = 300
	p := NewPlayer(w, constant(48000, 2400, 2, 0.5), nil, PlayerOptions{
		BlockSize: 256,
		Latency:   5 * time.Millisecond,
	})
	sink := &captureSink{period: time.Millisecond, frames: 256}
	p.SetSink(sink)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Run(ctx))
	require.NoError(t, ctx.Err(), "playback should end on its own")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 2700, sink.heard)
	assert.InDelta(t, 0.5, sink.samples[0], 1e-6)
	assert.InDelta(t, 0.5, sink.samples[2*2399+1], 1e-6)
	assert.Zero(t, sink.samples[2*2699])
	assert.Zero(t, p.Stats().Overruns)
	assert.Equal(t, plugin.PhaseDeactivated, w.Phase())
}

func TestPlayerLoopsUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, _ := newWrapper(t)
	p := NewPlayer(w, constant(48000, 100, 2, 0.25), nil, PlayerOptions{
		BlockSize: 64,
		Latency:   2 * time.Millisecond,
		Loop:      true,
	})
	sink := &captureSink{period: time.Millisecond, frames: 64}
	p.SetSink(sink)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Greater(t, sink.heard, 100, "looping should outlast the input")
	for _, v := range sink.samples {
		if !assert.InDelta(t, 0.25, v, 1e-6) {
			break
		}
	}
}
