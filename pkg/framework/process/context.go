// Package process provides the per-call audio processing context.
package process

import (
	"sync/atomic"

	"github.com/justyntemme/plugkit/pkg/framework/event"
)

// Context is handed to a plugin's process call. Its fields are valid for the
// duration of one call and must not be retained.
type Context struct {
	SampleRate float64

	// Transport as of the first sample of the current block.
	Transport Transport

	// Events holds the note and MIDI events for the current block, offsets
	// relative to its first sample. Parameter changes have already been
	// applied to the store and are not included.
	Events []event.Event

	blockOffset int32
	out         *event.Ring[event.Event]
	dropped     *atomic.Uint64

	workBuffer []float32
	tempBuffer []float32
}

// NewContext creates a context with pre-allocated scratch buffers. out may
// be nil for plugins that never send events.
func NewContext(sampleRate float64, maxBlockSize int, out *event.Ring[event.Event]) *Context {
	return &Context{
		SampleRate: sampleRate,
		out:        out,
		dropped:    new(atomic.Uint64),
		workBuffer: make([]float32, maxBlockSize),
		tempBuffer: make([]float32, maxBlockSize),
	}
}

// Begin prepares the context for a block starting offset samples into the
// host's buffer. Called by the wrapper.
func (c *Context) Begin(t Transport, offset int32, events []event.Event) {
	c.Transport = t
	c.blockOffset = offset
	c.Events = events
}

// BlockOffset returns where the current block starts within the host buffer.
func (c *Context) BlockOffset() int32 { return c.blockOffset }

// Send queues an output event for the host, e.g. generated MIDI. offset is
// relative to the current block. Send never blocks; when the queue is full
// the event is dropped and counted.
func (c *Context) Send(e event.Event) bool {
	if c.out == nil {
		c.dropped.Add(1)
		return false
	}
	e.Offset += c.blockOffset
	if !c.out.TryPush(e) {
		c.dropped.Add(1)
		return false
	}
	return true
}

// DroppedOutput returns how many output events could not be queued.
func (c *Context) DroppedOutput() uint64 { return c.dropped.Load() }

// CountDropsInto makes Send count dropped events in n, which can outlive the
// context. Call before the context is in use.
func (c *Context) CountDropsInto(n *atomic.Uint64) *Context {
	c.dropped = n
	return c
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to n samples - no allocation!
func (c *Context) WorkBuffer(n int) []float32 {
	return c.workBuffer[:n]
}

// TempBuffer returns a slice of the pre-allocated temp buffer
// sized to n samples - no allocation!
func (c *Context) TempBuffer(n int) []float32 {
	return c.tempBuffer[:n]
}
