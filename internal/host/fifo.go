package host

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/smallnest/ringbuffer"
)

const sampleBytes = 4

// FIFO carries rendered audio from the render goroutine to a device
// callback as interleaved little-endian float32 frames. Reads return
// silence until the write-ahead latency is buffered, and again after an
// underrun until it has refilled.
type FIFO struct {
	rb         *ringbuffer.RingBuffer
	channels   int
	frameBytes int
	latency    int // frames
	sampleRate float64

	primed    atomic.Bool
	closed    atomic.Bool
	underruns atomic.Uint64
	overruns  atomic.Uint64

	wbuf []byte // writer scratch
	rbuf []byte // reader scratch
}

// FIFOStats is a snapshot of the FIFO's health.
type FIFOStats struct {
	Underruns uint64
	Overruns  uint64
	Buffered  int // frames
	Capacity  int // frames
	Latency   time.Duration
}

// NewFIFO creates a FIFO holding four times latency of audio.
func NewFIFO(sampleRate float64, channels int, latency time.Duration) *FIFO {
	frames := max(int(math.Round(latency.Seconds()*sampleRate)), 1)
	frameBytes := channels * sampleBytes
	return &FIFO{
		rb:         ringbuffer.New(4 * frames * frameBytes),
		channels:   channels,
		frameBytes: frameBytes,
		latency:    frames,
		sampleRate: sampleRate,
	}
}

// Channels returns the number of interleaved channels.
func (f *FIFO) Channels() int { return f.channels }

// Buffered returns the number of frames waiting to be read.
func (f *FIFO) Buffered() int { return f.rb.Length() / f.frameBytes }

// Free returns the number of frames that can be written without overrun.
func (f *FIFO) Free() int { return f.rb.Free() / f.frameBytes }

// Write interleaves the first n frames of channels into the FIFO. Frames
// that do not fit are dropped and counted as an overrun. It returns the
// number of frames written.
func (f *FIFO) Write(channels [][]float32, n int) int {
	if n == 0 {
		return 0
	}
	fit := min(n, f.Free())
	if fit < n {
		f.overruns.Add(1)
	}
	if fit == 0 {
		return 0
	}

	size := fit * f.frameBytes
	if cap(f.wbuf) < size {
		f.wbuf = make([]byte, size)
	}
	b := f.wbuf[:size]
	for i := 0; i < fit; i++ {
		for ch := 0; ch < f.channels; ch++ {
			var v float32
			if ch < len(channels) {
				v = channels[ch][i]
			}
			binary.LittleEndian.PutUint32(b[(i*f.channels+ch)*sampleBytes:], math.Float32bits(v))
		}
	}
	written, _ := f.rb.Write(b)
	return written / f.frameBytes
}

// Fill copies whole frames into out, which holds interleaved float32
// samples as bytes, and zeroes what it cannot fill. It returns the number of
// frames copied.
func (f *FIFO) Fill(out []byte) int {
	want := len(out) / f.frameBytes
	if !f.primed.Load() && !f.closed.Load() {
		if f.Buffered() < f.latency {
			clear(out)
			return 0
		}
		f.primed.Store(true)
	}

	avail := f.Buffered()
	got := min(want, avail)
	if got < want && !f.closed.Load() {
		f.underruns.Add(1)
		f.primed.Store(false)
	}
	read := 0
	if got > 0 {
		read, _ = f.rb.Read(out[:got*f.frameBytes])
	}
	clear(out[read:])
	return read / f.frameBytes
}

// Read fills dst with interleaved samples. It returns the number of frames
// read.
func (f *FIFO) Read(dst []float32) int {
	size := len(dst) * sampleBytes
	if cap(f.rbuf) < size {
		f.rbuf = make([]byte, size)
	}
	b := f.rbuf[:size]
	frames := f.Fill(b)
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*sampleBytes:]))
	}
	return frames
}

// Close marks the end of the stream. Whatever is buffered is read out
// without waiting for the write-ahead latency.
func (f *FIFO) Close() { f.closed.Store(true) }

// Drained reports whether the FIFO is closed and empty.
func (f *FIFO) Drained() bool { return f.closed.Load() && f.rb.Length() == 0 }

// Stats returns the FIFO's counters and fill level.
func (f *FIFO) Stats() FIFOStats {
	buffered := f.Buffered()
	return FIFOStats{
		Underruns: f.underruns.Load(),
		Overruns:  f.overruns.Load(),
		Buffered:  buffered,
		Capacity:  f.rb.Capacity() / f.frameBytes,
		Latency:   time.Duration(float64(buffered) * float64(time.Second) / f.sampleRate),
	}
}

// Reset discards buffered audio and the counters.
func (f *FIFO) Reset() {
	f.rb.Reset()
	f.primed.Store(false)
	f.closed.Store(false)
	f.underruns.Store(0)
	f.overruns.Store(0)
}
