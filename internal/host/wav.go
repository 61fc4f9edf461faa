package host

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for files that are not PCM WAV.
var ErrInvalidWAV = errors.New("host: not a valid WAV file")

// Audio is deinterleaved sample data with its rate.
type Audio struct {
	SampleRate int
	Channels   [][]float32
}

// Frames returns the length of the audio in frames.
func (a Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}
	return len(a.Channels[0])
}

// ReadWAV decodes a 16, 24 or 32 bit PCM WAV file into [-1, 1] floats.
func ReadWAV(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Audio{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Audio{}, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	switch dec.BitDepth {
	case 16, 24, 32:
	default:
		return Audio{}, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Audio{}, fmt.Errorf("decode wav: %w", err)
	}

	numChans := int(dec.NumChans)
	if numChans == 0 {
		return Audio{}, fmt.Errorf("%w: no channels", ErrInvalidWAV)
	}
	scale := float32(math.Ldexp(1, int(dec.BitDepth)-1))
	frames := len(buf.Data) / numChans

	out := Audio{SampleRate: int(dec.SampleRate), Channels: make([][]float32, numChans)}
	for ch := range out.Channels {
		out.Channels[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			out.Channels[ch][i] = float32(buf.Data[i*numChans+ch]) / scale
		}
	}
	return out, nil
}

// WriteWAV encodes a as PCM at bitDepth, clipping to [-1, 1].
func WriteWAV(path string, a Audio, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("write wav: unsupported bit depth %d", bitDepth)
	}
	if len(a.Channels) == 0 {
		return errors.New("write wav: no channels")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	numChans := len(a.Channels)
	frames := a.Frames()
	peak := math.Ldexp(1, bitDepth-1) - 1
	data := make([]int, frames*numChans)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChans; ch++ {
			s := math.Max(-1, math.Min(1, float64(a.Channels[ch][i])))
			data[i*numChans+ch] = int(math.Round(s * peak))
		}
	}

	enc := wav.NewEncoder(f, a.SampleRate, bitDepth, numChans, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: a.SampleRate, NumChannels: numChans},
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

// fitChannels maps src onto n channels: mono is copied to every channel,
// extra channels are dropped and missing ones are silent.
func fitChannels(src [][]float32, n, frames int) [][]float32 {
	out := make([][]float32, n)
	for ch := range out {
		switch {
		case ch < len(src):
			out[ch] = src[ch]
		case len(src) == 1:
			out[ch] = src[0]
		default:
			out[ch] = make([]float32, frames)
		}
	}
	return out
}
