// Package event carries timed automation and note events from the control
// thread into the audio thread.
package event

import "fmt"

// Kind identifies the payload of an Event.
type Kind uint8

const (
	// KindParamChange sets a parameter's normalized value.
	KindParamChange Kind = iota
	// KindNoteOn starts a note.
	KindNoteOn
	// KindNoteOff releases a note.
	KindNoteOff
	// KindMIDI passes a raw channel message through (CC, pitch bend, pressure, program change).
	KindMIDI
)

func (k Kind) String() string {
	switch k {
	case KindParamChange:
		return "ParamChange"
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	case KindMIDI:
		return "MIDI"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is a value type so queues can hold it without allocating. Which
// fields are meaningful depends on Kind.
type Event struct {
	Kind   Kind
	Offset int32 // sample offset within the block

	// KindParamChange
	Param int32   // parameter index in the store
	Value float32 // normalized value

	// KindNoteOn, KindNoteOff
	Channel  uint8
	Note     uint8
	Velocity float32 // 0..1

	// KindMIDI
	Data [3]byte
	Size uint8
}

// ParamChange returns a parameter change for the parameter at index.
func ParamChange(offset int32, index int, normalized float32) Event {
	return Event{Kind: KindParamChange, Offset: offset, Param: int32(index), Value: normalized}
}

// NoteOn returns a note-on event.
func NoteOn(offset int32, channel, note uint8, velocity float32) Event {
	return Event{Kind: KindNoteOn, Offset: offset, Channel: channel, Note: note, Velocity: velocity}
}

// NoteOff returns a note-off event.
func NoteOff(offset int32, channel, note uint8, velocity float32) Event {
	return Event{Kind: KindNoteOff, Offset: offset, Channel: channel, Note: note, Velocity: velocity}
}

// MIDI returns a raw MIDI passthrough event of one to three bytes.
func MIDI(offset int32, data ...byte) Event {
	e := Event{Kind: KindMIDI, Offset: offset}
	e.Size = uint8(copy(e.Data[:], data))
	if e.Size > 0 {
		e.Channel = e.Data[0] & 0x0F
	}
	return e
}

func (e Event) String() string {
	switch e.Kind {
	case KindParamChange:
		return fmt.Sprintf("ParamChange{param:%d, value:%.4f, offset:%d}", e.Param, e.Value, e.Offset)
	case KindNoteOn, KindNoteOff:
		return fmt.Sprintf("%s{ch:%d, note:%d, vel:%.3f, offset:%d}",
			e.Kind, e.Channel, e.Note, e.Velocity, e.Offset)
	default:
		return fmt.Sprintf("MIDI{% x, offset:%d}", e.Data[:e.Size], e.Offset)
	}
}
