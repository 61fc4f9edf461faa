package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/internal/testplugin"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

func TestWatchDeliversWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 10*time.Millisecond, zap.NewNop(), func(data []byte) {
			got <- string(data)
		})
	}()

	// Writes to other files in the directory are ignored.
	other := filepath.Join(dir, "other.json")

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
loop:
	for {
		select {
		case data := <-got:
			assert.Equal(t, "v1", data)
			break loop
		case <-tick.C:
			require.NoError(t, os.WriteFile(other, []byte("noise"), 0o644))
			require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
		case <-deadline:
			t.Fatal("no change delivered")
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestApplyLive(t *testing.T) {
	src, _ := newWrapper(t)
	require.NoError(t, src.SetParameterPlain(testplugin.KeyGain, 0.5))
	require.NoError(t, src.SetParameterPlain(testplugin.KeyPan, 0.25))
	data, err := src.SaveState()
	require.NoError(t, err)

	w, _ := newWrapper(t)
	require.NoError(t, Prepare(w, plugin.Setup{SampleRate: 48000, MaxBlockSize: 64}))
	rep, err := ApplyLive(w, data)
	require.NoError(t, err)
	assert.Equal(t, w.Parameters().Len(), rep.Applied)
	assert.Equal(t, w.Parameters().Len(), w.Stats().Queue.Pending)

	gain, _ := w.Parameters().Lookup(testplugin.KeyGain)
	assert.InDelta(t, 1, gain.Plain(), 1e-5, "queued until the next block")

	_, err = w.Process(&plugin.ProcessData{
		Inputs:     [][]float32{make([]float32, 64), make([]float32, 64)},
		Outputs:    [][]float32{make([]float32, 64), make([]float32, 64)},
		NumSamples: 64,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, gain.Plain(), 1e-5)
	_, ramping := gain.SmootherState()
	assert.True(t, ramping)
}

func TestApplyLiveRejectsOtherPlugin(t *testing.T) {
	w, _ := newWrapper(t)
	_, err := ApplyLive(w, []byte(`{"version":1,"plugin":"com.example.other","params":{"gain":0.5}}`))
	assert.Error(t, err)

	rep, err := ApplyLive(w, []byte(`{"version":1,"params":{"gain":0.5,"drive":0.1,"pan":7}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Applied)
	assert.Equal(t, []string{"drive"}, rep.Unknown)
	assert.Equal(t, []string{"pan"}, rep.Invalid)
}
