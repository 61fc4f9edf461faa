package host

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/param"
)

// Position is a point on the render timeline. In YAML it is a number of
// seconds, a duration such as "250ms", or a sample count such as "4800smp".
type Position struct {
	Duration time.Duration
	Samples  int64
	IsSample bool
}

// Frame converts p to a frame index at sampleRate.
func (p Position) Frame(sampleRate float64) int64 {
	if p.IsSample {
		return p.Samples
	}
	return int64(math.Round(p.Duration.Seconds() * sampleRate))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Position) UnmarshalYAML(node *yaml.Node) error {
	pos, err := ParsePosition(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = pos
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Position) MarshalYAML() (any, error) {
	if p.IsSample {
		return strconv.FormatInt(p.Samples, 10) + "smp", nil
	}
	return p.Duration.String(), nil
}

// ParsePosition parses seconds, a Go duration or a sample count.
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if n, ok := strings.CutSuffix(s, "smp"); ok {
		v, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil || v < 0 {
			return Position{}, fmt.Errorf("invalid sample position %q", s)
		}
		return Position{Samples: v, IsSample: true}, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return Position{}, fmt.Errorf("invalid position %q", s)
		}
		return Position{Duration: time.Duration(secs * float64(time.Second))}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return Position{}, fmt.Errorf("invalid position %q", s)
	}
	return Position{Duration: d}, nil
}

// Point is one automation entry. Exactly one of Param and Note is set.
type Point struct {
	At Position `yaml:"at"`

	// Param changes a parameter to Value, which is plain unless Normalized
	// is set.
	Param      string  `yaml:"param,omitempty"`
	Value      float64 `yaml:"value,omitempty"`
	Normalized bool    `yaml:"normalized,omitempty"`

	// Note plays a note, released after Length when it is set.
	Note     *uint8    `yaml:"note,omitempty"`
	Channel  uint8     `yaml:"channel,omitempty"`
	Velocity float32   `yaml:"velocity,omitempty"`
	Length   *Position `yaml:"length,omitempty"`
}

// Automation is a script of parameter changes and notes.
type Automation struct {
	Points []Point `yaml:"points"`
}

// Timed is an event at an absolute frame.
type Timed struct {
	Frame int64
	Event event.Event
}

// Timeline is a compiled automation script ordered by frame.
type Timeline []Timed

var errBadPoint = errors.New("bad automation point")

// LoadAutomation reads a YAML automation script.
func LoadAutomation(path string) (*Automation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load automation: %w", err)
	}
	return ParseAutomation(data)
}

// ParseAutomation decodes a YAML automation script.
func ParseAutomation(data []byte) (*Automation, error) {
	var a Automation
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse automation: %w", err)
	}
	return &a, nil
}

// Compile resolves keys against store and positions against sampleRate.
// Events on the same frame keep their script order.
func (a *Automation) Compile(store *param.Store, sampleRate float64) (Timeline, error) {
	var tl Timeline
	for i, pt := range a.Points {
		frame := pt.At.Frame(sampleRate)
		switch {
		case pt.Param != "" && pt.Note != nil:
			return nil, fmt.Errorf("%w %d: both param and note", errBadPoint, i)
		case pt.Param != "":
			p, ok := store.Lookup(pt.Param)
			if !ok {
				return nil, fmt.Errorf("%w %d: unknown parameter %q", errBadPoint, i, pt.Param)
			}
			v := pt.Value
			if !pt.Normalized {
				v = p.Normalize(v)
			}
			tl = append(tl, Timed{Frame: frame, Event: event.ParamChange(0, p.Index(), float32(v))})
		case pt.Note != nil:
			vel := pt.Velocity
			if vel == 0 {
				vel = 1
			}
			tl = append(tl, Timed{Frame: frame, Event: event.NoteOn(0, pt.Channel, *pt.Note, vel)})
			if pt.Length != nil {
				off := frame + pt.Length.Frame(sampleRate)
				tl = append(tl, Timed{Frame: off, Event: event.NoteOff(0, pt.Channel, *pt.Note, 0)})
			}
		default:
			return nil, fmt.Errorf("%w %d: neither param nor note", errBadPoint, i)
		}
	}
	sort.SliceStable(tl, func(i, j int) bool { return tl[i].Frame < tl[j].Frame })
	return tl, nil
}

// Window returns the events in [from, from+n) with offsets relative to from,
// appended to dst, and the index to continue from.
func (tl Timeline) Window(dst []event.Event, cursor int, from int64, n int) ([]event.Event, int) {
	end := from + int64(n)
	for cursor < len(tl) && tl[cursor].Frame < end {
		t := tl[cursor]
		e := t.Event
		if t.Frame > from {
			e.Offset = int32(t.Frame - from)
		}
		dst = append(dst, e)
		cursor++
	}
	return dst, cursor
}
