package event

import (
	"math"
	"sync/atomic"
)

// PushResult tells the producer what happened to an event.
type PushResult uint8

const (
	// Accepted means the event was queued as given.
	Accepted PushResult = iota
	// Clamped means the event was queued with its offset raised to the
	// previous event's position, keeping the queue in order.
	Clamped
	// Coalesced means the queue was full and the parameter value replaced
	// any earlier overflowed value for the same parameter.
	Coalesced
	// Dropped means the queue was full and the event was discarded.
	Dropped
)

func (r PushResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Clamped:
		return "clamped"
	case Coalesced:
		return "coalesced"
	case Dropped:
		return "dropped"
	}
	return "unknown"
}

// Stats are the queue's lifetime counters.
type Stats struct {
	Accepted  uint64
	Clamped   uint64
	Coalesced uint64
	Dropped   uint64
	Pending   int
}

// Overflows returns how many pushes hit a full queue.
func (s Stats) Overflows() uint64 { return s.Coalesced + s.Dropped }

type entry struct {
	ev  Event
	abs uint64 // absolute sample position
}

// Overflow slot layout: value bits in the high word, then a present bit and
// the 31 low bits of the ring's tail at the time of the overflow.
const (
	slotPresent = 1 << 31
	seqMask     = slotPresent - 1
)

// Queue is the bounded event channel between one producer (the control
// thread) and one consumer (the audio thread).
//
// Offsets passed to Push are relative to the next block the consumer will
// drain. Internally events carry absolute sample positions, so an event
// scheduled beyond the current block waits for the block it belongs to.
//
// When the ring is full, parameter changes fall back to one overflow slot
// per parameter where the newest value wins. A slot is delivered only after
// every event queued before it, and is skipped if a later change for the
// same parameter has already been applied.
type Queue struct {
	ring *Ring[entry]
	base atomic.Uint64 // start of the next block to drain, written by the consumer

	// producer
	last uint64

	slots []atomic.Uint64
	dirty atomic.Bool

	accepted  atomic.Uint64
	clamped   atomic.Uint64
	coalesced atomic.Uint64
	dropped   atomic.Uint64

	// consumer
	applied []uint64 // ring index + 1 of the last change applied per parameter
	batch   Batch
}

// NewQueue creates a queue holding up to capacity events for a store of
// numParams parameters.
func NewQueue(capacity, numParams int) *Queue {
	q := &Queue{
		ring:    NewRing[entry](capacity),
		slots:   make([]atomic.Uint64, numParams),
		applied: make([]uint64, numParams),
	}
	q.batch.q = q
	return q
}

// Push queues an event without blocking. Producer only.
//
// Offsets must be non-decreasing; an offset behind the previous event is
// raised to the previous event's position and reported as Clamped.
func (q *Queue) Push(e Event) PushResult {
	if e.Offset < 0 {
		e.Offset = 0
	}
	abs := q.base.Load() + uint64(e.Offset)
	res := Accepted
	if abs < q.last {
		abs = q.last
		res = Clamped
	}

	if q.ring.TryPush(entry{ev: e, abs: abs}) {
		q.last = abs
		if res == Clamped {
			q.clamped.Add(1)
		} else {
			q.accepted.Add(1)
		}
		return res
	}

	if e.Kind == KindParamChange && e.Param >= 0 && int(e.Param) < len(q.slots) {
		seq := uint32(q.ring.tail.Load()) & seqMask
		q.slots[e.Param].Store(uint64(math.Float32bits(e.Value))<<32 | uint64(seq|slotPresent))
		q.dirty.Store(true)
		q.coalesced.Add(1)
		return Coalesced
	}
	q.dropped.Add(1)
	return Dropped
}

// Drain starts delivering the events due in the next blockLen samples.
// The returned batch is reused by the next call. Consumer only.
func (q *Queue) Drain(blockLen int) *Batch {
	b := &q.batch
	b.reset(q.base.Load(), uint64(max(blockLen, 0)))
	if blockLen > 0 {
		b.scan = q.dirty.Swap(false)
	}
	return b
}

// Flush hands every pending event to fn in order, regardless of offset.
// Only valid while no consumer is draining.
func (q *Queue) Flush(fn func(Event)) {
	b := &q.batch
	b.reset(0, math.MaxUint64)
	b.scan = q.dirty.Swap(false)
	for {
		e, ok := b.Next()
		if !ok {
			break
		}
		fn(e)
	}
}

// Reset discards everything queued and rewinds the sample clock. Neither
// side may be active.
func (q *Queue) Reset() {
	q.ring.Reset()
	q.base.Store(0)
	q.last = 0
	for i := range q.slots {
		q.slots[i].Store(0)
	}
	clear(q.applied)
	q.dirty.Store(false)
}

// Position returns the absolute sample position of the next block.
func (q *Queue) Position() uint64 { return q.base.Load() }

// Len returns the number of events in the ring, not counting overflow slots.
func (q *Queue) Len() int { return q.ring.Len() }

// Cap returns the ring capacity.
func (q *Queue) Cap() int { return q.ring.Cap() }

// Stats returns a snapshot of the counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Accepted:  q.accepted.Load(),
		Clamped:   q.clamped.Load(),
		Coalesced: q.coalesced.Load(),
		Dropped:   q.dropped.Load(),
		Pending:   q.ring.Len(),
	}
}

// Batch iterates the events due in one block, in non-decreasing offset
// order. It does not allocate.
type Batch struct {
	q      *Queue
	base   uint64
	end    uint64
	last   int32
	slot   int
	scan   bool
	retry  bool
	ringOK bool
	next   Event
	ready  bool
	done   bool
	flush  bool
}

func (b *Batch) reset(base, length uint64) {
	b.base = base
	b.flush = length == math.MaxUint64
	if b.flush {
		b.end = math.MaxUint64
	} else {
		b.end = base + length
	}
	b.last = 0
	b.slot = 0
	b.scan = false
	b.retry = false
	b.ringOK = true
	b.ready = false
	b.done = length == 0
}

// Peek returns the next event without consuming it.
func (b *Batch) Peek() (Event, bool) {
	if !b.fill() {
		return Event{}, false
	}
	return b.next, true
}

// Next consumes and returns the next event.
func (b *Batch) Next() (Event, bool) {
	if !b.fill() {
		return Event{}, false
	}
	b.ready = false
	return b.next, true
}

// Finish ends the block and advances the queue's clock. Due events that
// were never consumed are discarded and counted as dropped.
func (b *Batch) Finish() {
	for b.fill() {
		b.ready = false
		b.q.dropped.Add(1)
	}
	if !b.flush {
		b.q.base.Store(b.end)
	}
}

func (b *Batch) fill() bool {
	if b.ready {
		return true
	}
	if b.done {
		return false
	}
	q := b.q

	if b.ringOK {
		if ent, ok := q.ring.peek(); ok && ent.abs < b.end {
			idx := q.ring.head.Load()
			ev := ent.ev
			var off int32
			if !b.flush && ent.abs > b.base {
				off = int32(ent.abs - b.base)
			}
			if off < b.last {
				off = b.last
			}
			ev.Offset = off
			q.ring.TryPop()
			if ev.Kind == KindParamChange && ev.Param >= 0 && int(ev.Param) < len(q.applied) {
				q.applied[ev.Param] = idx + 1
			}
			b.last = off
			b.next, b.ready = ev, true
			return true
		}
		b.ringOK = false
	}

	if b.scan {
		head := q.ring.head.Load()
		for ; b.slot < len(q.slots); b.slot++ {
			s := &q.slots[b.slot]
			v := s.Load()
			if v&slotPresent == 0 {
				continue
			}
			diff := (uint32(head) - uint32(v)) & seqMask
			if diff >= 1<<30 {
				// events queued before the overflow are still pending
				b.retry = true
				continue
			}
			if !s.CompareAndSwap(v, 0) {
				b.retry = true
				continue
			}
			if q.applied[b.slot] > head-uint64(diff) {
				continue
			}
			b.next = ParamChange(b.last, b.slot, math.Float32frombits(uint32(v>>32)))
			b.ready = true
			b.slot++
			return true
		}
		b.scan = false
		if b.retry {
			q.dirty.Store(true)
		}
	}

	b.done = true
	return false
}
