package plugin

import "go.uber.org/zap"

// Config for wrapper behavior
type Config struct {
	// QueueCapacity is the number of events the control thread can queue
	// ahead of the audio thread.
	QueueCapacity int

	// OutputQueueCapacity bounds events sent from Process back to the host.
	OutputQueueCapacity int

	// MaxBlockEvents bounds the note and MIDI events delivered to one
	// sub-block. Events beyond it are dropped and counted.
	MaxBlockEvents int

	// SampleAccurateAutomation splits blocks at parameter changes. When
	// false, every change due in a block is applied at its start.
	SampleAccurateAutomation bool

	// BuiltinBypass adds a bypass parameter unless the plugin declares one.
	// While bypassed the input is passed through and Process is not called.
	BuiltinBypass bool

	// Logger receives lifecycle logs. Nil uses the debug package logger.
	Logger *zap.Logger
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:            1024,
		OutputQueueCapacity:      256,
		MaxBlockEvents:           512,
		SampleAccurateAutomation: true,
		BuiltinBypass:            true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = d.QueueCapacity
	}
	if c.OutputQueueCapacity <= 0 {
		c.OutputQueueCapacity = d.OutputQueueCapacity
	}
	if c.MaxBlockEvents <= 0 {
		c.MaxBlockEvents = d.MaxBlockEvents
	}
	return c
}
