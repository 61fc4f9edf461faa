// Package midi converts raw MIDI channel messages to and from events.
package midi

import (
	"fmt"
	"math"

	"github.com/justyntemme/plugkit/pkg/framework/event"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
	EventTypeUnknown
)

// Status nibbles of channel messages.
const (
	StatusNoteOff         byte = 0x80
	StatusNoteOn          byte = 0x90
	StatusPolyPressure    byte = 0xA0
	StatusControlChange   byte = 0xB0
	StatusProgramChange   byte = 0xC0
	StatusChannelPressure byte = 0xD0
	StatusPitchBend       byte = 0xE0
)

const (
	CCModWheel       uint8 = 1
	CCBreath         uint8 = 2
	CCFoot           uint8 = 4
	CCPortamentoTime uint8 = 5
	CCVolume         uint8 = 7
	CCBalance        uint8 = 8
	CCPan            uint8 = 10
	CCExpression     uint8 = 11
	CCSustain        uint8 = 64
	CCPortamento     uint8 = 65
	CCSostenuto      uint8 = 66
	CCSoft           uint8 = 67
	CCLegato         uint8 = 68
	CCHold2          uint8 = 69
	CCAllSoundOff    uint8 = 120
	CCResetAll       uint8 = 121
	CCLocalControl   uint8 = 122
	CCAllNotesOff    uint8 = 123
)

// messageSize returns the length of a channel message with the given status.
func messageSize(status byte) int {
	switch status & 0xF0 {
	case StatusProgramChange, StatusChannelPressure:
		return 2
	case StatusNoteOff, StatusNoteOn, StatusPolyPressure, StatusControlChange, StatusPitchBend:
		return 3
	}
	return 0
}

// Decode turns a raw channel message into an event at offset. Notes become
// note events, a note-on with zero velocity becomes a note-off, and every
// other channel message is passed through as a MIDI event. System messages
// are not supported.
func Decode(offset int32, data []byte) (event.Event, bool) {
	if len(data) == 0 {
		return event.Event{}, false
	}
	status := data[0]
	size := messageSize(status)
	if size == 0 || len(data) < size {
		return event.Event{}, false
	}
	for _, b := range data[1:size] {
		if b&0x80 != 0 {
			return event.Event{}, false
		}
	}
	channel := status & 0x0F

	switch status & 0xF0 {
	case StatusNoteOn:
		if data[2] == 0 {
			return event.NoteOff(offset, channel, data[1], 0), true
		}
		return event.NoteOn(offset, channel, data[1], float32(data[2])/127), true
	case StatusNoteOff:
		return event.NoteOff(offset, channel, data[1], float32(data[2])/127), true
	}
	return event.MIDI(offset, data[:size]...), true
}

// Encode renders a note or MIDI event as raw bytes. It returns the number
// of bytes used, or 0 for events with no MIDI form.
func Encode(e event.Event) ([3]byte, int) {
	var out [3]byte
	switch e.Kind {
	case event.KindNoteOn, event.KindNoteOff:
		status := StatusNoteOn
		if e.Kind == event.KindNoteOff {
			status = StatusNoteOff
		}
		out[0] = status | e.Channel&0x0F
		out[1] = e.Note & 0x7F
		out[2] = uint8(math.Round(float64(clamp01(e.Velocity)) * 127))
		if e.Kind == event.KindNoteOn && out[2] == 0 {
			out[2] = 1
		}
		return out, 3
	case event.KindMIDI:
		copy(out[:], e.Data[:e.Size])
		return out, int(e.Size)
	}
	return out, 0
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

// Type classifies an event by its MIDI message type.
func Type(e event.Event) EventType {
	switch e.Kind {
	case event.KindNoteOn:
		return EventTypeNoteOn
	case event.KindNoteOff:
		return EventTypeNoteOff
	case event.KindMIDI:
		if e.Size == 0 {
			return EventTypeUnknown
		}
		switch e.Data[0] & 0xF0 {
		case StatusPolyPressure:
			return EventTypePolyPressure
		case StatusControlChange:
			return EventTypeControlChange
		case StatusProgramChange:
			return EventTypeProgramChange
		case StatusChannelPressure:
			return EventTypeChannelPressure
		case StatusPitchBend:
			return EventTypePitchBend
		}
	}
	return EventTypeUnknown
}

// ControlChange returns the controller number and value of a CC event.
func ControlChange(e event.Event) (controller, value uint8, ok bool) {
	if Type(e) != EventTypeControlChange {
		return 0, 0, false
	}
	return e.Data[1], e.Data[2], true
}

// PitchBend returns the bend of a pitch bend event in [-1, 1).
func PitchBend(e event.Event) (float64, bool) {
	if Type(e) != EventTypePitchBend {
		return 0, false
	}
	raw := int(e.Data[2])<<7 | int(e.Data[1])
	return float64(raw-8192) / 8192.0, true
}

// ControlChangeEvent builds a CC passthrough event.
func ControlChangeEvent(offset int32, channel, controller, value uint8) event.Event {
	return event.MIDI(offset, StatusControlChange|channel&0x0F, controller&0x7F, value&0x7F)
}

// PitchBendEvent builds a pitch bend event from a bend in [-1, 1].
func PitchBendEvent(offset int32, channel uint8, bend float64) event.Event {
	raw := int(math.Round(bend*8192)) + 8192
	raw = min(max(raw, 0), 16383)
	return event.MIDI(offset, StatusPitchBend|channel&0x0F, byte(raw&0x7F), byte(raw>>7))
}

// NoteToFrequency returns the equal-tempered frequency of a MIDI note.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

// FrequencyToNote returns the nearest MIDI note for freq.
func FrequencyToNote(freq, tuningA4 float64) uint8 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	if freq <= 0 {
		return 0
	}
	note := 69.0 + 12.0*math.Log2(freq/tuningA4)
	if note < 0 {
		return 0
	}
	if note > 127 {
		return 127
	}
	return uint8(note + 0.5)
}

func NoteNumberToName(note uint8) string {
	noteNames := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	octave := int(note/12) - 1
	noteName := noteNames[note%12]
	return fmt.Sprintf("%s%d", noteName, octave)
}
