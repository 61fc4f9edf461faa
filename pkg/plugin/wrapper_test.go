package plugin

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/justyntemme/plugkit/internal/testplugin"
	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/param"
	fwplugin "github.com/justyntemme/plugkit/pkg/framework/plugin"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

var testSetup = Setup{SampleRate: 48000, MaxBlockSize: 256}

func newTestWrapper(t *testing.T, cfg Config) (*Wrapper, *testplugin.GainPan) {
	t.Helper()
	gp := testplugin.New()
	w, err := NewWrapper(gp, cfg)
	require.NoError(t, err)
	return w, gp
}

func activeWrapper(t *testing.T, cfg Config) (*Wrapper, *testplugin.GainPan) {
	t.Helper()
	w, gp := newTestWrapper(t, cfg)
	require.NoError(t, w.Initialize(testSetup))
	require.NoError(t, w.Activate())
	return w, gp
}

func channels(n int, v float32) [][]float32 {
	out := make([][]float32, 2)
	for ch := range out {
		out[ch] = make([]float32, n)
		for i := range out[ch] {
			out[ch][i] = v
		}
	}
	return out
}

func block(n int) *ProcessData {
	return &ProcessData{Inputs: channels(n, 1), Outputs: channels(n, 0), NumSamples: n}
}

func index(t *testing.T, w *Wrapper, key string) int {
	t.Helper()
	i, ok := w.Parameters().Index(key)
	require.True(t, ok, key)
	return i
}

func normalizedPlain(t *testing.T, w *Wrapper, key string, plain float64) float32 {
	t.Helper()
	p, ok := w.Parameters().Lookup(key)
	require.True(t, ok, key)
	return float32(p.Normalize(plain))
}

func plain(t *testing.T, w *Wrapper, key string) float64 {
	t.Helper()
	p, ok := w.Parameters().Lookup(key)
	require.True(t, ok, key)
	return p.Plain()
}

func TestProcessBeforeActivate(t *testing.T) {
	w, _ := newTestWrapper(t, DefaultConfig())

	_, err := w.Process(block(64))
	require.ErrorIs(t, err, ErrContractViolation)

	var cv *ContractViolation
	require.True(t, errors.As(err, &cv))
	assert.Equal(t, "process", cv.Op)
	assert.Equal(t, PhaseUninitialized, cv.Phase)

	require.NoError(t, w.Initialize(testSetup))
	_, err = w.Process(block(64))
	assert.ErrorIs(t, err, ErrContractViolation)

	require.NoError(t, w.Activate())
	require.NoError(t, w.Deactivate())
	_, err = w.Process(block(64))
	assert.ErrorIs(t, err, ErrContractViolation)

	assert.Equal(t, uint64(3), w.Stats().Violations)
}

func TestActivateTwiceRejected(t *testing.T) {
	w, _ := activeWrapper(t, DefaultConfig())

	err := w.Activate()
	require.ErrorIs(t, err, ErrContractViolation)
	assert.Equal(t, PhaseActivated, w.Phase())

	require.NoError(t, w.Deactivate())
	assert.ErrorIs(t, w.Deactivate(), ErrContractViolation)
	require.NoError(t, w.Activate())
}

func TestLifecycleTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps func(w *Wrapper) error
		phase Phase
		fails bool
	}{
		{
			name:  "destroy uninitialized",
			steps: func(w *Wrapper) error { return w.Destroy() },
			phase: PhaseDestroyed,
		},
		{
			name: "destroy initialized",
			steps: func(w *Wrapper) error {
				if err := w.Initialize(testSetup); err != nil {
					return err
				}
				return w.Destroy()
			},
			phase: PhaseDestroyed,
		},
		{
			name: "destroy while activated",
			steps: func(w *Wrapper) error {
				if err := w.Initialize(testSetup); err != nil {
					return err
				}
				if err := w.Activate(); err != nil {
					return err
				}
				return w.Destroy()
			},
			phase: PhaseActivated,
			fails: true,
		},
		{
			name: "initialize twice",
			steps: func(w *Wrapper) error {
				if err := w.Initialize(testSetup); err != nil {
					return err
				}
				return w.Initialize(testSetup)
			},
			phase: PhaseInitialized,
			fails: true,
		},
		{
			name:  "activate uninitialized",
			steps: func(w *Wrapper) error { return w.Activate() },
			phase: PhaseUninitialized,
			fails: true,
		},
		{
			name: "full cycle",
			steps: func(w *Wrapper) error {
				for _, step := range []func() error{
					func() error { return w.Initialize(testSetup) },
					w.Activate, w.Deactivate, w.Activate, w.Deactivate, w.Destroy,
				} {
					if err := step(); err != nil {
						return err
					}
				}
				return nil
			},
			phase: PhaseDestroyed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWrapper(t, DefaultConfig())
			err := tt.steps(w)
			if tt.fails {
				assert.ErrorIs(t, err, ErrContractViolation)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.phase, w.Phase())
		})
	}
}

func TestInitializeErrors(t *testing.T) {
	t.Run("plugin failure", func(t *testing.T) {
		w, gp := newTestWrapper(t, DefaultConfig())
		gp.FailInit = true

		err := w.Initialize(testSetup)
		var ie *InitError
		require.True(t, errors.As(err, &ie))
		assert.ErrorIs(t, err, testplugin.ErrInduced)
		assert.Equal(t, 48000.0, ie.SampleRate)
		assert.Equal(t, PhaseUninitialized, w.Phase())
		assert.ErrorIs(t, w.Activate(), ErrContractViolation)
	})

	t.Run("invalid setup", func(t *testing.T) {
		for _, setup := range []Setup{
			{SampleRate: 0, MaxBlockSize: 64},
			{SampleRate: 48000, MaxBlockSize: 0},
		} {
			w, _ := newTestWrapper(t, DefaultConfig())
			err := w.Initialize(setup)
			assert.ErrorIs(t, err, errInvalidSetup, setup.String())
		}
	})

	t.Run("unsupported layout", func(t *testing.T) {
		w, _ := newTestWrapper(t, DefaultConfig())
		err := w.Initialize(Setup{SampleRate: 48000, MaxBlockSize: 64, Layout: bus.Layout{Inputs: 6, Outputs: 6}})
		assert.ErrorIs(t, err, ErrUnsupportedLayout)
	})
}

func TestReconfigureResetsSmoothers(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	require.NoError(t, w.SetParameterPlain(testplugin.KeyGain, 0.5))

	_, err := w.Process(block(64))
	require.NoError(t, err)

	gain, _ := w.Parameters().Lookup(testplugin.KeyGain)
	before, ramping := gain.SmootherState()
	require.True(t, ramping)
	require.Less(t, before, 1.0)
	require.Greater(t, before, 0.5)

	resets := gp.Resets()
	require.NoError(t, w.Reconfigure(Setup{SampleRate: 44100, MaxBlockSize: 128}))

	assert.Equal(t, PhaseActivated, w.Phase())
	assert.Equal(t, 44100.0, w.Setup().SampleRate)
	assert.Equal(t, resets+1, gp.Resets())

	after, ramping := gain.SmootherState()
	assert.False(t, ramping)
	assert.Equal(t, before, after)
	assert.InDelta(t, 0.5, gain.Plain(), 1e-6)
}

func TestReconfigureRejectedLeavesDeactivated(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.FailInit = true

	err := w.Reconfigure(Setup{SampleRate: 96000, MaxBlockSize: 256})
	require.ErrorIs(t, err, testplugin.ErrInduced)
	assert.Equal(t, PhaseDeactivated, w.Phase())
	assert.Equal(t, 48000.0, w.Setup().SampleRate)
}

func TestSampleAccurateAutomation(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.Record(8)
	gain := index(t, w, testplugin.KeyGain)

	w.PushEvent(event.ParamChange(16, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.5)))
	w.PushEvent(event.NoteOn(16, 0, 60, 0.8))
	w.PushEvent(event.ParamChange(40, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.25)))

	_, err := w.Process(block(64))
	require.NoError(t, err)

	blocks := gp.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, []int32{0, 16, 40}, []int32{blocks[0].Offset, blocks[1].Offset, blocks[2].Offset})
	assert.Equal(t, []int{16, 24, 24}, []int{blocks[0].Samples, blocks[1].Samples, blocks[2].Samples})
	assert.InDelta(t, 1.0, blocks[0].Gain, 1e-6)
	assert.InDelta(t, 0.5, blocks[1].Gain, 1e-4)
	assert.InDelta(t, 0.25, blocks[2].Gain, 1e-4)

	assert.Empty(t, blocks[0].Events)
	require.Len(t, blocks[1].Events, 1)
	assert.Equal(t, event.KindNoteOn, blocks[1].Events[0].Kind)
	assert.Equal(t, int32(0), blocks[1].Events[0].Offset)
	assert.Equal(t, uint64(1), gp.Notes())
}

func TestNoteBeforeSplitCarriesOver(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.Record(8)

	w.PushEvent(event.NoteOn(3, 0, 60, 1))
	w.PushEvent(event.NoteOn(20, 0, 62, 1))
	w.PushEvent(event.ParamChange(20, index(t, w, testplugin.KeyPan), 0.75))

	_, err := w.Process(block(32))
	require.NoError(t, err)

	blocks := gp.Blocks()
	require.Len(t, blocks, 2)
	require.Len(t, blocks[0].Events, 1)
	assert.Equal(t, int32(3), blocks[0].Events[0].Offset)
	require.Len(t, blocks[1].Events, 1)
	assert.Equal(t, uint8(62), blocks[1].Events[0].Note)
	assert.Equal(t, int32(0), blocks[1].Events[0].Offset)
}

func TestBlockRateAutomation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleAccurateAutomation = false
	w, gp := activeWrapper(t, cfg)
	gp.Record(4)
	gain := index(t, w, testplugin.KeyGain)

	w.PushEvent(event.ParamChange(16, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.5)))
	w.PushEvent(event.ParamChange(40, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.25)))

	_, err := w.Process(block(64))
	require.NoError(t, err)

	blocks := gp.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, 64, blocks[0].Samples)
	assert.InDelta(t, 0.25, blocks[0].Gain, 1e-4)
}

func TestInCallEventsMerged(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.Record(8)
	gain := index(t, w, testplugin.KeyGain)
	pan := index(t, w, testplugin.KeyPan)

	// queued wins the tie at offset 8, in-call 10 is clamped forward to 20
	w.PushEvent(event.ParamChange(8, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.5)))
	data := block(64)
	data.Events = []event.Event{
		event.ParamChange(8, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.75)),
		event.ParamChange(20, pan, 0.25),
		event.ParamChange(10, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.125)),
		event.NoteOn(500, 0, 64, 1),
	}

	_, err := w.Process(data)
	require.NoError(t, err)

	blocks := gp.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, int32(8), blocks[1].Offset)
	assert.InDelta(t, 0.75, blocks[1].Gain, 1e-4)
	assert.Equal(t, int32(20), blocks[2].Offset)
	assert.InDelta(t, 0.125, blocks[2].Gain, 1e-4)

	require.Len(t, blocks[2].Events, 1)
	assert.Equal(t, int32(63-20), blocks[2].Events[0].Offset)
	assert.InDelta(t, -0.5, plain(t, w, testplugin.KeyPan), 1e-6)
}

func TestBuiltinBypass(t *testing.T) {
	w, gp := newTestWrapper(t, DefaultConfig())
	gp.Record(4)
	require.NoError(t, w.SetParameterPlain(testplugin.KeyGain, 0.5))
	require.NoError(t, w.SetParameter(BypassKey, 1))
	require.NoError(t, w.Initialize(testSetup))
	require.NoError(t, w.Activate())

	data := block(32)
	status, err := w.Process(data)
	require.NoError(t, err)
	assert.Equal(t, process.Normal, status)
	assert.Empty(t, gp.Blocks())
	for ch := range data.Outputs {
		assert.Equal(t, data.Inputs[ch], data.Outputs[ch])
	}

	require.NoError(t, w.SetParameter(BypassKey, 0))
	data = block(32)
	_, err = w.Process(data)
	require.NoError(t, err)
	assert.Len(t, gp.Blocks(), 1)
	assert.InDelta(t, 0.5, data.Outputs[0][0], 1e-4)
}

func TestDeclaredBypassIsLeftToPlugin(t *testing.T) {
	calls := 0
	p := fwplugin.NewSimpleProcessor(
		fwplugin.Info{ID: "io.github.justyntemme.plugkit.selfbypass", Name: "SelfBypass"},
		nil,
		[]*param.Parameter{param.BypassParameter("active", "Active").Build()},
		func(*process.Buffer, *process.Context) process.Status {
			calls++
			return process.Normal
		},
	)
	w, err := NewWrapper(p, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, w.Parameters().Len())

	require.NoError(t, w.SetParameter("active", 1))
	require.NoError(t, w.Initialize(testSetup))
	require.NoError(t, w.Activate())
	_, err = w.Process(block(16))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPanicIsRecovered(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.PanicOn = 1

	data := block(32)
	status, err := w.Process(data)
	require.NoError(t, err)
	assert.Equal(t, process.Failed, status)
	assert.Equal(t, make([]float32, 32), data.Outputs[0])

	stats := w.Stats()
	assert.True(t, stats.Faulted)
	assert.Equal(t, uint64(1), stats.Panics)

	// stays silent until reactivated
	data = block(32)
	status, err = w.Process(data)
	require.NoError(t, err)
	assert.Equal(t, process.Failed, status)
	assert.Equal(t, make([]float32, 32), data.Outputs[1])
	assert.Equal(t, process.Failed, w.LastStatus())
	assert.Zero(t, w.TailSamples())

	require.NoError(t, w.Deactivate())
	require.NoError(t, w.Activate())
	status, err = w.Process(block(32))
	require.NoError(t, err)
	assert.Equal(t, process.Normal, status)
	assert.False(t, w.Stats().Faulted)
}

func TestFaultedInstanceKeepsParameters(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.Fail = true

	status, err := w.Process(block(32))
	require.NoError(t, err)
	assert.Equal(t, process.Failed, status)

	require.NoError(t, w.SetParameterPlain(testplugin.KeyPan, 0.5))
	_, err = w.Process(block(32))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, plain(t, w, testplugin.KeyPan), 1e-6)
}

func TestFailingBlockStillAppliesLaterChanges(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.Fail = true
	pan := index(t, w, testplugin.KeyPan)
	gain := index(t, w, testplugin.KeyGain)

	assert.Equal(t, event.Accepted, w.PushEvent(event.ParamChange(16, pan, normalizedPlain(t, w, testplugin.KeyPan, 0.5))))
	data := block(32)
	data.Events = []event.Event{event.ParamChange(24, gain, normalizedPlain(t, w, testplugin.KeyGain, 0.25))}

	status, err := w.Process(data)
	require.NoError(t, err)
	assert.Equal(t, process.Failed, status)
	assert.InDelta(t, 0.5, plain(t, w, testplugin.KeyPan), 1e-6)
	assert.InDelta(t, 0.25, plain(t, w, testplugin.KeyGain), 1e-6)
	assert.Zero(t, w.Stats().Queue.Dropped)
	assert.Zero(t, w.Stats().Queue.Pending)
}

func TestDroppedOutputSurvivesReconfigure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputQueueCapacity = 1
	w, gp := newTestWrapper(t, cfg)
	gp.EchoNotes = true
	require.NoError(t, w.Initialize(testSetup))
	require.NoError(t, w.Activate())

	for i := int32(0); i < 3; i++ {
		w.PushEvent(event.NoteOn(i, 1, 60, 1))
	}
	_, err := w.Process(block(16))
	require.NoError(t, err)
	require.Equal(t, uint64(2), w.Stats().DroppedOutput)

	require.NoError(t, w.Reconfigure(Setup{SampleRate: 44100, MaxBlockSize: 128}))
	assert.Equal(t, uint64(2), w.Stats().DroppedOutput)
}

func TestTailStatus(t *testing.T) {
	w, gp := activeWrapper(t, DefaultConfig())
	gp.Tail = 4800

	status, err := w.Process(block(64))
	require.NoError(t, err)
	assert.Equal(t, process.Tail(4800), status)
	assert.Equal(t, 4800, w.TailSamples())

	// an empty flush call keeps the last status
	_, err = w.Process(block(0))
	require.NoError(t, err)
	assert.Equal(t, 4800, w.TailSamples())

	gp.Tail = 0
	_, err = w.Process(block(64))
	require.NoError(t, err)
	assert.Equal(t, 0, w.TailSamples())
}

func TestZeroLengthAppliesParameters(t *testing.T) {
	w, _ := activeWrapper(t, DefaultConfig())
	data := block(0)
	data.Events = []event.Event{event.ParamChange(0, index(t, w, testplugin.KeyPan), 0)}

	_, err := w.Process(data)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, plain(t, w, testplugin.KeyPan), 1e-6)
}

func TestProcessValidatesData(t *testing.T) {
	w, _ := activeWrapper(t, DefaultConfig())

	tests := []struct {
		name string
		data *ProcessData
	}{
		{"block too long", block(512)},
		{"missing output", &ProcessData{Inputs: channels(16, 0), Outputs: channels(16, 0)[:1], NumSamples: 16}},
		{"missing input", &ProcessData{Inputs: channels(16, 0)[:1], Outputs: channels(16, 0), NumSamples: 16}},
		{"short channel", &ProcessData{Inputs: channels(8, 0), Outputs: channels(8, 0), NumSamples: 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.Process(tt.data)
			assert.ErrorIs(t, err, ErrContractViolation)
		})
	}
	assert.Equal(t, PhaseActivated, w.Phase())
}

func TestSidechainInputIgnored(t *testing.T) {
	w, _ := activeWrapper(t, DefaultConfig())
	data := block(16)
	data.Inputs = append(data.Inputs, make([]float32, 16), make([]float32, 16))

	status, err := w.Process(data)
	require.NoError(t, err)
	assert.Equal(t, process.Normal, status)
	assert.InDelta(t, 1.0, data.Outputs[0][0], 1e-6)
}

func TestInPlaceProcessing(t *testing.T) {
	w, _ := newTestWrapper(t, DefaultConfig())
	require.NoError(t, w.SetParameterPlain(testplugin.KeyGain, 0.5))
	require.NoError(t, w.Initialize(testSetup))
	require.NoError(t, w.Activate())

	buf := channels(16, 1)
	_, err := w.Process(&ProcessData{Inputs: buf, Outputs: buf, NumSamples: 16})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, buf[0][15], 1e-4)
	assert.InDelta(t, 0.5, buf[1][0], 1e-4)
}

func TestDeactivateFlushesQueue(t *testing.T) {
	w, _ := activeWrapper(t, DefaultConfig())

	require.NoError(t, w.SetParameterPlain(testplugin.KeyPan, -0.2))
	assert.InDelta(t, 0.0, plain(t, w, testplugin.KeyPan), 1e-6)
	assert.Equal(t, 1, w.Stats().Queue.Pending)

	require.NoError(t, w.Deactivate())
	assert.InDelta(t, -0.2, plain(t, w, testplugin.KeyPan), 1e-6)
}

func TestSetParameterErrors(t *testing.T) {
	w, _ := newTestWrapper(t, DefaultConfig())

	assert.ErrorIs(t, w.SetParameter("legacyParam", 0.5), ErrUnknownParameter)
	assert.ErrorIs(t, w.SetParameterPlain("legacyParam", 0.5), ErrUnknownParameter)
	assert.Equal(t, event.Dropped, w.PushEvent(event.ParamChange(0, 99, 0.5)))
	assert.Equal(t, event.Dropped, w.PushEvent(event.NoteOn(0, 0, 60, 1)))

	require.NoError(t, w.Destroy())
	assert.ErrorIs(t, w.SetParameter(testplugin.KeyGain, 0.5), ErrContractViolation)
	_, err := w.SaveState()
	assert.ErrorIs(t, err, ErrContractViolation)
}

func TestNotesEchoedToHost(t *testing.T) {
	w, gp := newTestWrapper(t, DefaultConfig())
	gp.EchoNotes = true
	require.NoError(t, w.Initialize(testSetup))
	require.NoError(t, w.Activate())

	assert.Equal(t, event.Accepted, w.PushEvent(event.NoteOn(5, 1, 60, 1)))
	assert.Equal(t, event.Accepted, w.PushEvent(event.NoteOff(9, 1, 60, 0)))
	_, err := w.Process(block(16))
	require.NoError(t, err)

	var got []event.Event
	n := w.DrainOutput(func(e event.Event) { got = append(got, e) })
	require.Equal(t, 2, n)
	assert.Equal(t, event.KindNoteOn, got[0].Kind)
	assert.Equal(t, int32(5), got[0].Offset)
	assert.Equal(t, event.KindNoteOff, got[1].Kind)
	assert.Equal(t, 0, w.DrainOutput(func(event.Event) {}))
}

func TestNewWrapperRejectsDuplicateKeys(t *testing.T) {
	p := fwplugin.NewSimpleProcessor(
		fwplugin.Info{ID: "io.github.justyntemme.plugkit.dup", Name: "Dup"},
		nil,
		[]*param.Parameter{
			param.GainParameter("gain", "Gain").Build(),
			param.GainParameter("gain", "Gain 2").Build(),
		},
		nil,
	)
	w, err := NewWrapper(p, DefaultConfig())
	assert.Nil(t, w)
	require.ErrorIs(t, err, param.ErrDuplicateParameterKey)

	var ce *param.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "gain", ce.Key)
}

func TestLatency(t *testing.T) {
	w, gp := newTestWrapper(t, DefaultConfig())
	gp.Latency = 64
	require.NoError(t, w.Initialize(testSetup))
	assert.Equal(t, 64, w.LatencySamples())
}

func TestConcurrentAutomation(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, _ := activeWrapper(t, DefaultConfig())
	data := block(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			_ = w.SetParameter(testplugin.KeyPan, float64(i%100)/100)
		}
	}()
	for i := 0; i < 200; i++ {
		_, err := w.Process(data)
		require.NoError(t, err)
	}
	wg.Wait()

	require.NoError(t, w.Deactivate())
	assert.InDelta(t, -1+2*0.99, plain(t, w, testplugin.KeyPan), 1e-6)
}

func TestProcessDoesNotAllocate(t *testing.T) {
	w, _ := activeWrapper(t, DefaultConfig())
	data := block(128)
	gain := index(t, w, testplugin.KeyGain)
	data.Events = []event.Event{
		event.ParamChange(32, gain, 0.4),
		event.NoteOn(40, 0, 60, 1),
		event.ParamChange(96, gain, 0.6),
	}

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := w.Process(data); err != nil {
			t.Fatal(err)
		}
	})
	assert.Zero(t, allocs)
}

func BenchmarkProcess(b *testing.B) {
	gp := testplugin.New()
	w, err := NewWrapper(gp, DefaultConfig())
	require.NoError(b, err)
	require.NoError(b, w.Initialize(testSetup))
	require.NoError(b, w.Activate())
	data := block(256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := w.Process(data); err != nil {
			b.Fatal(err)
		}
	}
}
