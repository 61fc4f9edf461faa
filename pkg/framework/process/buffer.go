package process

import (
	"errors"
	"fmt"
)

var (
	// ErrShortChannel is returned when a channel holds fewer samples than the block.
	ErrShortChannel = errors.New("channel shorter than block")
	// ErrTooManyChannels is returned when a buffer is given more channels than it was built for.
	ErrTooManyChannels = errors.New("too many channels")
)

// Buffer is a non-owning view over per-channel sample storage for one
// block. Bounds are checked when the view is set, so the accessors do not
// check again. A Buffer never resizes the memory it points at.
type Buffer struct {
	views   [][]float32
	samples int
}

// NewBuffer creates a view with room for up to maxChannels channels.
func NewBuffer(maxChannels int) *Buffer {
	return &Buffer{views: make([][]float32, 0, maxChannels)}
}

// Wrap creates a view over channels, each cut to numSamples.
func Wrap(channels [][]float32, numSamples int) (*Buffer, error) {
	b := NewBuffer(len(channels))
	if err := b.Set(channels, numSamples); err != nil {
		return nil, err
	}
	return b, nil
}

// Set points the view at new storage. It does not allocate as long as
// len(channels) fits the capacity given to NewBuffer.
func (b *Buffer) Set(channels [][]float32, numSamples int) error {
	if len(channels) > cap(b.views) {
		return fmt.Errorf("%w: %d > %d", ErrTooManyChannels, len(channels), cap(b.views))
	}
	if numSamples < 0 {
		return fmt.Errorf("%w: negative sample count %d", ErrShortChannel, numSamples)
	}
	for ch, data := range channels {
		if len(data) < numSamples {
			return fmt.Errorf("%w: channel %d has %d samples, block is %d", ErrShortChannel, ch, len(data), numSamples)
		}
	}
	b.views = b.views[:len(channels)]
	for ch, data := range channels {
		b.views[ch] = data[:numSamples:numSamples]
	}
	b.samples = numSamples
	return nil
}

// SliceInto points dst at samples [start, end) of b. dst must have been
// created with at least b.NumChannels() channels of capacity.
func (b *Buffer) SliceInto(dst *Buffer, start, end int) {
	dst.views = dst.views[:len(b.views)]
	for ch, data := range b.views {
		dst.views[ch] = data[start:end:end]
	}
	dst.samples = end - start
}

// Channel returns the samples of channel ch.
func (b *Buffer) Channel(ch int) []float32 { return b.views[ch] }

// Channels returns all channel slices. The outer slice must not be modified.
func (b *Buffer) Channels() [][]float32 { return b.views }

// NumChannels returns the number of channels.
func (b *Buffer) NumChannels() int { return len(b.views) }

// NumSamples returns the number of samples per channel.
func (b *Buffer) NumSamples() int { return b.samples }

// Clear zeros every channel.
func (b *Buffer) Clear() {
	for _, data := range b.views {
		clear(data)
	}
}

// CopyFrom copies src channel by channel. Extra destination channels are
// zeroed; extra source channels are ignored.
func (b *Buffer) CopyFrom(src *Buffer) {
	for ch, data := range b.views {
		if ch < len(src.views) {
			n := copy(data, src.views[ch])
			clear(data[n:])
		} else {
			clear(data)
		}
	}
}

// ProcessChannels calls fn for every channel.
func (b *Buffer) ProcessChannels(fn func(ch int, samples []float32)) {
	for ch, data := range b.views {
		fn(ch, data)
	}
}

// ProcessStereo calls fn for at most the first two channels.
func (b *Buffer) ProcessStereo(fn func(ch int, samples []float32)) {
	for ch, data := range b.views {
		if ch == 2 {
			break
		}
		fn(ch, data)
	}
}
