package param

import (
	"fmt"
	"strings"

	"github.com/justyntemme/plugkit/pkg/dsp/gain"
)

// ChoiceOption is one entry of a Choice parameter.
type ChoiceOption struct {
	Name    string
	Aliases []string
}

// Choice creates a list parameter whose plain value is the option index.
// Names, aliases and indices are all accepted when parsing.
func Choice(key, name string, options []ChoiceOption) *Builder {
	names := make([]string, len(options))
	lookup := make(map[string]int)
	for i, opt := range options {
		names[i] = opt.Name
		for _, alias := range opt.Aliases {
			lookup[strings.ToLower(alias)] = i
		}
	}
	byName := EnumParser(names)

	return New(key, name).
		WithRange(Enum(names...)).
		Formatter(nil, func(str string) (float64, error) {
			if v, err := byName(str); err == nil {
				return v, nil
			}
			if i, ok := lookup[strings.ToLower(strings.TrimSpace(str))]; ok {
				return float64(i), nil
			}
			return 0, fmt.Errorf("unknown option: %s", str)
		})
}

// GainParameter is a -80..+12 dB fader where the bottom reads as -∞.
func GainParameter(key, name string) *Builder {
	const floor = -80
	return New(key, name).
		Range(floor, 12).
		Default(0).
		Unit("dB").
		Smooth(LinearMs(10)).
		Formatter(func(db float64) string {
			if db <= floor {
				return "-∞ dB"
			}
			return DecibelFormatter(db)
		}, func(s string) (float64, error) {
			if isInfinity(s) {
				return floor, nil
			}
			return DecibelParser(s)
		})
}

// LevelParameter holds a linear gain factor up to maxDB, displayed and
// parsed in decibels.
func LevelParameter(key, name string, maxDB float64) *Builder {
	return New(key, name).
		WithRange(Skewed(0, gain.DbToLinear(maxDB), SkewFactor(-2))).
		Default(1).
		Unit("dB").
		Smooth(ExponentialMs(20)).
		Formatter(func(v float64) string {
			return DecibelFormatter(gain.LinearToDb(v))
		}, func(s string) (float64, error) {
			db, err := DecibelParser(s)
			if err != nil {
				return 0, err
			}
			return gain.DbToLinear(db), nil
		})
}

// MixParameter is a 0..100 % dry/wet blend.
func MixParameter(key, name string) *Builder {
	return New(key, name).
		Range(0, 100).
		Default(100).
		Unit("%").
		Smooth(LinearMs(20)).
		Formatter(PercentFormatter, PercentParser)
}

// TimeParameter is a skewed duration in milliseconds.
func TimeParameter(key, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(key, name).
		WithRange(Skewed(minMs, maxMs, SkewFactor(-1))).
		Default(defaultMs).
		Unit("ms").
		Formatter(TimeFormatter, TimeParser)
}

// PanParameter is a -1 (left) .. 1 (right) stereo position.
func PanParameter(key, name string) *Builder {
	return New(key, name).
		Range(-1, 1).
		Default(0).
		Smooth(LinearMs(10)).
		Formatter(PanFormatter, PanParser)
}

// BypassParameter is the toggle a wrapper routes around processing.
func BypassParameter(key, name string) *Builder {
	return New(key, name).
		Toggle().
		Bypass().
		Formatter(func(v float64) string {
			if v >= 0.5 {
				return "Bypassed"
			}
			return "Active"
		}, func(s string) (float64, error) {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "bypassed":
				return 1, nil
			case "active":
				return 0, nil
			}
			return OnOffParser(s)
		})
}
