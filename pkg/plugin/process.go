package plugin

import (
	"fmt"
	"time"

	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

// ProcessData is one host process call.
type ProcessData struct {
	// Inputs and Outputs are the main bus channels. They may share storage
	// for in-place processing. Inputs beyond the negotiated layout, such as
	// a sidechain, are ignored.
	Inputs     [][]float32
	Outputs    [][]float32
	NumSamples int

	Transport process.Transport

	// Events the host delivers inside this call, offsets relative to its
	// first sample. Parameter changes carry the store index in Param. They
	// are merged with events queued from the control thread; on equal
	// offsets queued events come first.
	Events []event.Event
}

func newContext(setup Setup, out *event.Ring[event.Event]) *process.Context {
	return process.NewContext(setup.SampleRate, setup.MaxBlockSize, out)
}

// Process renders one block. It must only be called from the audio thread
// while the wrapper is Activated; any other call, including a reentrant one,
// returns a *ContractViolation. A plugin that fails or panics is reported
// through process.Failed, its output is silenced, and the instance stays
// silent until it is activated again.
//
// When sample-accurate automation is enabled the block is split at every
// parameter change so each change takes effect on its exact sample.
func (w *Wrapper) Process(data *ProcessData) (process.Status, error) {
	if !w.inProcess.CompareAndSwap(false, true) {
		return process.Failed, w.violation("process", "reentrant call")
	}
	defer w.inProcess.Store(false)

	if w.Phase() != PhaseActivated {
		return process.Failed, w.violation("process", "")
	}
	if err := w.bind(data); err != nil {
		return process.Failed, err
	}

	n := data.NumSamples
	if w.faulted.Load() {
		w.skip(data, n)
		w.output.Clear()
		w.status.Store(packStatus(process.Failed))
		return process.Failed, nil
	}

	start := time.Now()
	w.output.CopyFrom(w.input)

	status := w.render(data, n)
	if status.Kind == process.StatusError {
		w.faulted.Store(true)
		w.output.Clear()
	}
	w.status.Store(packStatus(status))
	w.meter.Record(time.Since(start), n, w.setup.SampleRate)
	return status, nil
}

// bind checks data against the negotiated setup and points the buffer views
// at it.
func (w *Wrapper) bind(data *ProcessData) error {
	n := data.NumSamples
	if n < 0 || n > w.setup.MaxBlockSize {
		return w.violation("process", fmt.Sprintf("block of %d samples, maximum is %d", n, w.setup.MaxBlockSize))
	}
	l := w.setup.Layout
	if len(data.Inputs) < int(l.Inputs) || len(data.Outputs) != int(l.Outputs) {
		return w.violation("process", fmt.Sprintf("got %d/%d channels, negotiated %s", len(data.Inputs), len(data.Outputs), l))
	}
	if err := w.input.Set(data.Inputs[:l.Inputs], n); err != nil {
		return w.violation("process", err.Error())
	}
	if err := w.output.Set(data.Outputs, n); err != nil {
		return w.violation("process", err.Error())
	}
	return nil
}

func (w *Wrapper) render(data *ProcessData, n int) process.Status {
	batch := w.queue.Drain(n)
	w.inCall, w.inIdx, w.inLast, w.blockLen = data.Events, 0, 0, n
	defer func() { w.inCall = nil }()

	status := process.Normal
	pending := 0
	pos := 0
	for {
		notes := w.notes[:pending]
		end := n
		for {
			e, fromQueue, ok := w.peek(batch)
			if !ok {
				break
			}
			if e.Kind == event.KindParamChange && w.cfg.SampleAccurateAutomation && int(e.Offset) > pos {
				end = int(e.Offset)
				break
			}
			w.consume(batch, e, fromQueue)
			switch {
			case e.Kind == event.KindParamChange:
				w.applyParam(e)
			case len(notes) < cap(notes):
				notes = append(notes, e)
			default:
				w.droppedNotes.Add(1)
			}
		}

		if n == 0 {
			// parameter flush call, nothing to render
			w.droppedNotes.Add(uint64(len(notes)))
			batch.Finish()
			return w.loadStatus()
		}

		// notes at or after the split belong to the next sub-block
		k := len(notes)
		for k > 0 && int(notes[k-1].Offset) >= end {
			k--
		}
		for i := range notes[:k] {
			notes[i].Offset -= int32(pos)
		}
		status = status.Merge(w.runBlock(pos, end, data.Transport, notes[:k]))
		pending = copy(w.notes[:cap(w.notes)], notes[k:])

		pos = end
		if pos >= n || status.Kind == process.StatusError {
			break
		}
	}
	if status.Kind == process.StatusError {
		w.applyRemaining(batch)
	}
	batch.Finish()
	return status
}

// applyRemaining applies the parameter changes still due in a block the
// plugin failed in, so the store ends the block where the host left it.
// Note events are discarded.
func (w *Wrapper) applyRemaining(b *event.Batch) {
	for {
		e, fromQueue, ok := w.peek(b)
		if !ok {
			return
		}
		w.consume(b, e, fromQueue)
		if e.Kind == event.KindParamChange {
			w.applyParam(e)
		}
	}
}

// peek returns the next event of the merged stream of queued and in-call
// events. In-call offsets are clamped into the block and made non-decreasing.
func (w *Wrapper) peek(b *event.Batch) (e event.Event, fromQueue, ok bool) {
	qe, qok := b.Peek()
	if w.inIdx < len(w.inCall) {
		ie := w.inCall[w.inIdx]
		ie.Offset = min(max(ie.Offset, w.inLast), int32(max(w.blockLen-1, 0)))
		if !qok || ie.Offset < qe.Offset {
			return ie, false, true
		}
	}
	return qe, true, qok
}

func (w *Wrapper) consume(b *event.Batch, e event.Event, fromQueue bool) {
	if fromQueue {
		b.Next()
		return
	}
	w.inLast = e.Offset
	w.inIdx++
}

// runBlock renders samples [start, end) of the output.
func (w *Wrapper) runBlock(start, end int, t process.Transport, notes []event.Event) process.Status {
	length := end - start
	if w.bypass != nil && w.bypass.Plain() >= 0.5 {
		// output already holds the input
		w.store.TickAll(length)
		return process.Normal
	}

	w.output.SliceInto(w.sub, start, end)
	w.ctx.Begin(t.Advanced(start, w.setup.SampleRate), int32(start), notes)
	st := w.call()
	w.store.TickAll(length)
	return st
}

func (w *Wrapper) call() (st process.Status) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprint(r)
			w.lastPanic.Store(&reason)
			w.panics.Add(1)
			st = process.Failed
		}
	}()
	return w.plugin.Process(w.sub, w.ctx)
}

// skip keeps parameters and the queue clock moving for a faulted instance.
func (w *Wrapper) skip(data *ProcessData, n int) {
	b := w.queue.Drain(n)
	for {
		e, ok := b.Next()
		if !ok {
			break
		}
		if e.Kind == event.KindParamChange {
			w.applyParam(e)
		}
	}
	b.Finish()
	for _, e := range data.Events {
		if e.Kind == event.KindParamChange {
			w.applyParam(e)
		}
	}
}
