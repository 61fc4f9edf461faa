package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/debug"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

// Settings is the plughost configuration, read from an optional YAML file,
// PLUGHOST_* environment variables and flags, in increasing precedence.
type Settings struct {
	SampleRate float64 `mapstructure:"samplerate"`
	BlockSize  int     `mapstructure:"blocksize"`
	Channels   int     `mapstructure:"channels"`

	Queue struct {
		Capacity int `mapstructure:"capacity"`
	} `mapstructure:"queue"`

	Metrics struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"metrics"`

	Log debug.Config `mapstructure:"log"`

	Session struct {
		Watch    string        `mapstructure:"watch"`
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"session"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("samplerate", 0)
	v.SetDefault("blocksize", 512)
	v.SetDefault("channels", 0)
	v.SetDefault("queue.capacity", plugin.DefaultConfig().QueueCapacity)
	v.SetDefault("metrics.listen", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.development", false)
	v.SetDefault("session.watch", "")
	v.SetDefault("session.debounce", "100ms")
}

// bindFlags maps flag names onto config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		f := cmd.PersistentFlags().Lookup(name)
		if f == nil {
			f = cmd.Flags().Lookup(name)
		}
		if f == nil {
			return fmt.Errorf("bind flag %s: no such flag", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// loadSettings reads the config file, if any, and decodes every source
// into Settings.
func loadSettings(v *viper.Viper, file string) (*Settings, error) {
	v.SetEnvPrefix("plughost")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	var errs []error
	if s.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("samplerate must not be negative, got %g", s.SampleRate))
	}
	if s.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("blocksize must be positive, got %d", s.BlockSize))
	}
	if s.Channels < 0 || s.Channels > bus.MaxChannels {
		errs = append(errs, fmt.Errorf("channels must be between 0 and %d, got %d", bus.MaxChannels, s.Channels))
	}
	if s.Queue.Capacity < 0 {
		errs = append(errs, fmt.Errorf("queue.capacity must not be negative, got %d", s.Queue.Capacity))
	}
	if _, err := debug.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Layout returns the channel layout to negotiate. Zero channels keeps the
// plugin's default.
func (s *Settings) Layout() bus.Layout {
	n := int32(s.Channels)
	return bus.Layout{Inputs: n, Outputs: n}
}

// WrapperConfig returns the wrapper configuration.
func (s *Settings) WrapperConfig() plugin.Config {
	cfg := plugin.DefaultConfig()
	cfg.QueueCapacity = s.Queue.Capacity
	cfg.Logger = debug.Named("wrapper")
	return cfg
}
