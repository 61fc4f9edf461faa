package process

// Transport is the host's playback state at the first sample of a block.
type Transport struct {
	Tempo         float64 // beats per minute, 0 if unknown
	TimeSigNum    int
	TimeSigDenom  int
	Playing       bool
	Recording     bool
	Looping       bool
	LoopStart     int64 // samples
	LoopEnd       int64 // samples
	Position      int64 // samples since the start of the song
	PositionBeats float64
}

// SamplesPerBeat returns the beat length at sampleRate, or 0 without a tempo.
func (t Transport) SamplesPerBeat(sampleRate float64) float64 {
	if t.Tempo <= 0 {
		return 0
	}
	return sampleRate * 60 / t.Tempo
}

// Advanced returns the transport n samples later. Loop wrapping is applied
// while playing a loop.
func (t Transport) Advanced(n int, sampleRate float64) Transport {
	if !t.Playing || n == 0 {
		return t
	}
	t.Position += int64(n)
	if spb := t.SamplesPerBeat(sampleRate); spb > 0 {
		t.PositionBeats += float64(n) / spb
	}
	if t.Looping && t.LoopEnd > t.LoopStart && t.Position >= t.LoopEnd {
		length := t.LoopEnd - t.LoopStart
		over := (t.Position - t.LoopStart) % length
		if spb := t.SamplesPerBeat(sampleRate); spb > 0 {
			t.PositionBeats -= float64(t.Position-t.LoopStart-over) / spb
		}
		t.Position = t.LoopStart + over
	}
	return t
}
