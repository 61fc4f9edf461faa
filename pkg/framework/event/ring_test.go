package event

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRing(t *testing.T) {
	r := NewRing[int](3)
	require.Equal(t, 3, r.Cap())

	assert.True(t, r.TryPush(1))
	assert.True(t, r.TryPush(2))
	assert.True(t, r.TryPush(3))
	assert.False(t, r.TryPush(4), "push into a full ring fails")
	assert.Equal(t, 3, r.Len())

	v, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, r.TryPush(4))

	var got []int
	for {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{2, 3, 4}, got)
	assert.Zero(t, r.Len())

	r.TryPush(9)
	r.Reset()
	_, ok = r.TryPop()
	assert.False(t, ok)
}

func TestRingConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 100000
	r := NewRing[int](64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; {
			if r.TryPush(i) {
				i++
			}
		}
	}()

	for want := 0; want < n; {
		v, ok := r.TryPop()
		if !ok {
			continue
		}
		if v != want {
			t.Fatalf("popped %d, want %d", v, want)
		}
		want++
	}
	wg.Wait()
}
