// Package bus describes a plugin's audio and event buses and the channel
// layouts it can run with.
package bus

import "fmt"

// MediaType represents the type of bus
type MediaType int32

const (
	// MediaTypeAudio represents audio bus type
	MediaTypeAudio MediaType = 0
	// MediaTypeEvent represents event/MIDI bus type
	MediaTypeEvent MediaType = 1
)

// Direction represents the bus direction
type Direction int32

const (
	// DirectionInput represents input bus
	DirectionInput Direction = 0
	// DirectionOutput represents output bus
	DirectionOutput Direction = 1
)

// Type represents the bus type
type Type int32

const (
	// TypeMain represents main bus
	TypeMain Type = 0
	// TypeAux represents auxiliary bus
	TypeAux Type = 1
)

// MaxChannels is the largest channel count accepted on one bus.
const MaxChannels = 32

// Info contains bus configuration
type Info struct {
	MediaType    MediaType
	Direction    Direction
	ChannelCount int32
	Name         string
	BusType      Type
	IsActive     bool
}

// Layout is the main input and output channel count negotiated with a host.
type Layout struct {
	Inputs  int32
	Outputs int32
}

// Stereo is the two in, two out layout.
var Stereo = Layout{Inputs: 2, Outputs: 2}

// Mono is the one in, one out layout.
var Mono = Layout{Inputs: 1, Outputs: 1}

func (l Layout) String() string {
	return fmt.Sprintf("%din/%dout", l.Inputs, l.Outputs)
}

// Validate checks the channel counts.
func (l Layout) Validate() error {
	if l.Inputs < 0 || l.Inputs > MaxChannels {
		return fmt.Errorf("invalid input channel count %d", l.Inputs)
	}
	if l.Outputs < 0 || l.Outputs > MaxChannels {
		return fmt.Errorf("invalid output channel count %d", l.Outputs)
	}
	return nil
}

// Configuration lists a plugin's buses. The main audio buses define the
// default layout; alternatives are other layouts the plugin also accepts.
type Configuration struct {
	audioBuses   []Info
	eventBuses   []Info
	alternatives []Layout
}

// GetBusCount returns the number of buses for a given type and direction
func (c *Configuration) GetBusCount(mediaType MediaType, direction Direction) int32 {
	count := int32(0)
	for _, bus := range c.buses(mediaType) {
		if bus.Direction == direction {
			count++
		}
	}
	return count
}

// GetBusInfo returns information about a specific bus
func (c *Configuration) GetBusInfo(mediaType MediaType, direction Direction, index int32) *Info {
	buses := c.buses(mediaType)
	busIndex := int32(0)
	for i := range buses {
		if buses[i].Direction == direction {
			if busIndex == index {
				return &buses[i]
			}
			busIndex++
		}
	}
	return nil
}

func (c *Configuration) buses(mediaType MediaType) []Info {
	if mediaType == MediaTypeEvent {
		return c.eventBuses
	}
	return c.audioBuses
}

// MainLayout returns the channel counts of the first main input and output.
func (c *Configuration) MainLayout() Layout {
	var l Layout
	if in := c.GetBusInfo(MediaTypeAudio, DirectionInput, 0); in != nil && in.BusType == TypeMain {
		l.Inputs = in.ChannelCount
	}
	if out := c.GetBusInfo(MediaTypeAudio, DirectionOutput, 0); out != nil && out.BusType == TypeMain {
		l.Outputs = out.ChannelCount
	}
	return l
}

// Layouts returns the default layout followed by the alternatives.
func (c *Configuration) Layouts() []Layout {
	return append([]Layout{c.MainLayout()}, c.alternatives...)
}

// Supports reports whether l is one of the declared layouts.
func (c *Configuration) Supports(l Layout) bool {
	if l == c.MainLayout() {
		return true
	}
	for _, alt := range c.alternatives {
		if alt == l {
			return true
		}
	}
	return false
}

// HasEventInput reports whether the plugin takes notes or MIDI.
func (c *Configuration) HasEventInput() bool {
	return c.GetBusCount(MediaTypeEvent, DirectionInput) > 0
}

// HasEventOutput reports whether the plugin sends notes or MIDI.
func (c *Configuration) HasEventOutput() bool {
	return c.GetBusCount(MediaTypeEvent, DirectionOutput) > 0
}

// NewEffectStereo creates a standard stereo effect configuration
func NewEffectStereo() *Configuration {
	return NewBuilder().
		WithStereoInput("Stereo In").
		WithStereoOutput("Stereo Out").
		MustBuild()
}

// NewEffectMono creates a mono effect configuration
func NewEffectMono() *Configuration {
	return NewBuilder().
		WithMonoInput("Mono In").
		WithMonoOutput("Mono Out").
		MustBuild()
}

// NewEffectStereoSidechain creates a stereo effect with a sidechain input
func NewEffectStereoSidechain() *Configuration {
	return NewBuilder().
		WithStereoInput("Stereo In").
		WithStereoOutput("Stereo Out").
		WithSidechain("Sidechain In").
		MustBuild()
}

// NewGenerator creates a generator/instrument configuration
// No audio input, stereo output, MIDI input
func NewGenerator() *Configuration {
	return NewBuilder().
		WithStereoOutput("Stereo Out").
		WithEventInput("MIDI In").
		MustBuild()
}

// NewMIDIEffect creates a MIDI effect configuration
// MIDI in/out, no audio
func NewMIDIEffect() *Configuration {
	return NewBuilder().
		WithEventInput("MIDI In").
		WithEventOutput("MIDI Out").
		MustBuild()
}
