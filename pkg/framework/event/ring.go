package event

import "sync/atomic"

// Ring is a bounded single-producer single-consumer FIFO. Push and pop
// never block or allocate. One goroutine may push while another pops.
type Ring[T any] struct {
	head atomic.Uint64 // next slot to pop, owned by the consumer
	_    [56]byte
	tail atomic.Uint64 // next slot to fill, owned by the producer
	_    [56]byte
	buf  []T
}

// NewRing creates a ring holding up to capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// TryPush appends v, or reports false if the ring is full. Producer only.
func (r *Ring[T]) TryPush(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.buf)) {
		return false
	}
	r.buf[tail%uint64(len(r.buf))] = v
	r.tail.Store(tail + 1)
	return true
}

// TryPop removes the oldest element. Consumer only.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	head := r.head.Load()
	if head == r.tail.Load() {
		return zero, false
	}
	slot := &r.buf[head%uint64(len(r.buf))]
	v := *slot
	*slot = zero
	r.head.Store(head + 1)
	return v, true
}

// peek returns the oldest element without removing it. Consumer only.
func (r *Ring[T]) peek() (*T, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil, false
	}
	return &r.buf[head%uint64(len(r.buf))], true
}

// Len returns the number of queued elements.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring's capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Reset empties the ring. Neither side may be active.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head.Store(0)
	r.tail.Store(0)
}
