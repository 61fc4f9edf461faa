package bus

import (
	"errors"
	"fmt"
)

// Builder assembles a Configuration. Errors are collected and reported by
// Build.
type Builder struct {
	config Configuration
	errs   []error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// add appends a bus. Aux buses start inactive.
func (b *Builder) add(info Info) *Builder {
	info.IsActive = info.BusType == TypeMain
	if info.MediaType == MediaTypeEvent {
		b.config.eventBuses = append(b.config.eventBuses, info)
	} else {
		b.config.audioBuses = append(b.config.audioBuses, info)
	}
	return b
}

func (b *Builder) audio(dir Direction, typ Type, name string, channels int32) *Builder {
	return b.add(Info{MediaType: MediaTypeAudio, Direction: dir, BusType: typ, Name: name, ChannelCount: channels})
}

func (b *Builder) WithAudioInput(name string, channels int32) *Builder {
	return b.audio(DirectionInput, TypeMain, name, channels)
}

func (b *Builder) WithAudioOutput(name string, channels int32) *Builder {
	return b.audio(DirectionOutput, TypeMain, name, channels)
}

func (b *Builder) WithStereoInput(name string) *Builder  { return b.WithAudioInput(name, 2) }
func (b *Builder) WithStereoOutput(name string) *Builder { return b.WithAudioOutput(name, 2) }
func (b *Builder) WithMonoInput(name string) *Builder    { return b.WithAudioInput(name, 1) }
func (b *Builder) WithMonoOutput(name string) *Builder   { return b.WithAudioOutput(name, 1) }

// WithSidechain adds a stereo aux input.
func (b *Builder) WithSidechain(name string) *Builder {
	return b.audio(DirectionInput, TypeAux, name, 2)
}

func (b *Builder) WithEventInput(name string) *Builder {
	return b.add(Info{MediaType: MediaTypeEvent, Direction: DirectionInput, Name: name, ChannelCount: 1})
}

func (b *Builder) WithEventOutput(name string) *Builder {
	return b.add(Info{MediaType: MediaTypeEvent, Direction: DirectionOutput, Name: name, ChannelCount: 1})
}

// WithAlternative declares another main layout the plugin can run with.
func (b *Builder) WithAlternative(inputs, outputs int32) *Builder {
	l := Layout{Inputs: inputs, Outputs: outputs}
	if err := l.Validate(); err != nil {
		b.errs = append(b.errs, fmt.Errorf("alternative %s: %w", l, err))
		return b
	}
	b.config.alternatives = append(b.config.alternatives, l)
	return b
}

// Validate requires a main output bus (audio or event) and audio channel
// counts in 1..MaxChannels.
func (b *Builder) Validate() error {
	errs := append([]error(nil), b.errs...)

	mainOut := false
	for _, info := range append(b.config.audioBuses[:len(b.config.audioBuses):len(b.config.audioBuses)], b.config.eventBuses...) {
		mainOut = mainOut || (info.Direction == DirectionOutput && info.BusType == TypeMain)
	}
	if !mainOut {
		errs = append(errs, errors.New("no main output bus"))
	}
	for _, info := range b.config.audioBuses {
		if info.ChannelCount < 1 || info.ChannelCount > MaxChannels {
			errs = append(errs, fmt.Errorf("bus %q: channel count %d outside 1..%d", info.Name, info.ChannelCount, MaxChannels))
		}
	}
	return errors.Join(errs...)
}

func (b *Builder) Build() (*Configuration, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bus configuration: %w", err)
	}
	config := b.config
	return &config, nil
}

// MustBuild is Build for static configurations; it panics on error.
func (b *Builder) MustBuild() *Configuration {
	config, err := b.Build()
	if err != nil {
		panic(err)
	}
	return config
}
