package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plugkit/internal/host"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParamsCommand(t *testing.T) {
	out, err := run(t, "params")
	require.NoError(t, err)
	for _, key := range []string{"gain", "pan", "mode", "bypass"} {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "GainPan")
}

func TestSessionSaveAndLoad(t *testing.T) {
	for _, name := range []string{"preset.yaml", "preset.json", "preset.state"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			out, err := run(t, "session", "save", path, "--set", "gain=-6dB", "--set", "mode=mono")
			require.NoError(t, err)
			assert.Contains(t, out, "saved 4 parameters")

			out, err = run(t, "session", "load", path)
			require.NoError(t, err)
			assert.Contains(t, out, "4 applied")
			assert.Contains(t, out, "mode = Mono")
		})
	}
}

func TestSessionSaveRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.json")
	for _, set := range []string{"gain", "drive=1", "mode=loud"} {
		_, err := run(t, "session", "save", path, "--set", set)
		assert.Error(t, err, set)
	}
	assert.NoFileExists(t, path)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	script := filepath.Join(dir, "automation.yaml")

	src := host.Audio{SampleRate: 48000, Channels: [][]float32{make([]float32, 4800), make([]float32, 4800)}}
	for ch := range src.Channels {
		for i := range src.Channels[ch] {
			src.Channels[ch][i] = 0.5
		}
	}
	require.NoError(t, host.WriteWAV(in, src, 24))
	require.NoError(t, os.WriteFile(script, []byte("points:\n  - at: 0\n    param: gain\n    value: 0\n"), 0o644))

	stdout, err := run(t, "--blocksize", "128", "render", in, out, "--automation", script, "--bits", "16")
	require.NoError(t, err)
	assert.Contains(t, stdout, "4800 frames")

	res, err := host.ReadWAV(out)
	require.NoError(t, err)
	require.Equal(t, 4800, res.Frames())
	assert.InDelta(t, 0, res.Channels[0][4799], 1e-4)
}

func TestRenderMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "render", filepath.Join(dir, "missing.wav"), filepath.Join(dir, "out.wav"))
	assert.Error(t, err)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plughost.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
samplerate: 44100
blocksize: 128
queue:
  capacity: 64
metrics:
  listen: 127.0.0.1:9464
log:
  level: debug
session:
  watch: /tmp/live.json
  debounce: 250ms
`), 0o644))

	v := viper.New()
	setDefaults(v)
	s, err := loadSettings(v, file)
	require.NoError(t, err)
	assert.Equal(t, 44100.0, s.SampleRate)
	assert.Equal(t, 128, s.BlockSize)
	assert.Equal(t, 64, s.Queue.Capacity)
	assert.Equal(t, "127.0.0.1:9464", s.Metrics.Listen)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "/tmp/live.json", s.Session.Watch)
	assert.Equal(t, "250ms", s.Session.Debounce.String())
	assert.Equal(t, 64, s.WrapperConfig().QueueCapacity)

	t.Setenv("PLUGHOST_BLOCKSIZE", "0")
	v = viper.New()
	setDefaults(v)
	_, err = loadSettings(v, file)
	assert.ErrorContains(t, err, "blocksize")
}
