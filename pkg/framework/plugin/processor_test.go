package plugin

import (
	"errors"
	"testing"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/param"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

func TestBase(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		b := NewBase(Info{ID: "com.example.base"}, nil)
		if b.Buses().MainLayout() != bus.Stereo {
			t.Errorf("expected stereo default, got %v", b.Buses().MainLayout())
		}
		extra, err := b.SaveState()
		if err != nil || extra != nil {
			t.Errorf("SaveState() = %v, %v; want nil, nil", extra, err)
		}
		if err := b.LoadState([]byte("x")); err != nil {
			t.Errorf("LoadState() error = %v", err)
		}
	})

	t.Run("Callbacks", func(t *testing.T) {
		b := NewBase(Info{}, bus.NewEffectMono())
		var gotRate float64
		var gotBlock int
		resets := 0
		b.OnInitialize(func(sr float64, n int) error {
			gotRate, gotBlock = sr, n
			return nil
		})
		b.OnReset(func() { resets++ })

		if err := b.Initialize(44100, 256); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		b.Reset()
		b.Reset()

		if gotRate != 44100 || gotBlock != 256 {
			t.Errorf("callback got (%v, %v)", gotRate, gotBlock)
		}
		if b.SampleRate() != 44100 || b.MaxBlockSize() != 256 {
			t.Errorf("setup not recorded: (%v, %v)", b.SampleRate(), b.MaxBlockSize())
		}
		if resets != 2 {
			t.Errorf("expected 2 resets, got %d", resets)
		}
	})

	t.Run("InitializeError", func(t *testing.T) {
		b := NewBase(Info{}, nil)
		want := errors.New("unsupported rate")
		b.OnInitialize(func(float64, int) error { return want })
		if err := b.Initialize(1, 1); !errors.Is(err, want) {
			t.Errorf("Initialize() error = %v, want %v", err, want)
		}
	})
}

func TestSimpleProcessor(t *testing.T) {
	gain := param.New("gain", "Gain").Build()
	called := 0
	s := NewSimpleProcessor(Info{ID: "com.example.simple"}, nil, []*param.Parameter{gain},
		func(buf *process.Buffer, ctx *process.Context) process.Status {
			called++
			for _, ch := range buf.Channels() {
				for i := range ch {
					ch[i] *= 0.5
				}
			}
			return process.Tail(10)
		})

	if got := s.DeclareParameters(); len(got) != 1 || got[0] != gain {
		t.Fatalf("DeclareParameters() = %v", got)
	}

	data := [][]float32{{1, 1}, {2, 2}}
	buf, err := process.Wrap(data, 2)
	if err != nil {
		t.Fatal(err)
	}
	status := s.Process(buf, process.NewContext(48000, 2, nil))

	if called != 1 {
		t.Errorf("process func called %d times", called)
	}
	if status != process.Tail(10) {
		t.Errorf("status = %v", status)
	}
	if data[0][0] != 0.5 || data[1][1] != 1 {
		t.Errorf("buffer not processed: %v", data)
	}

	empty := NewSimpleProcessor(Info{}, nil, nil, nil)
	if st := empty.Process(buf, nil); st != process.Normal {
		t.Errorf("nil process func status = %v", st)
	}
}
