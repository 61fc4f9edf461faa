package param

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter is a single plugin parameter. Identity and range are fixed once
// the parameter has been added to a Store; only the value changes.
//
// Value writes (SetPlain, SetNormalized) may come from any thread. The
// smoother belongs to the audio thread and is only touched through Smoothed
// and the Store's tick operations.
type Parameter struct {
	ID        uint32
	Key       string
	Name      string
	ShortName string
	Unit      string
	Range     Range
	Default   float64 // plain value
	Flags     uint32
	UnitID    int32
	Smoothing Smoothing

	cell Cell
	gen  atomic.Uint32

	// audio thread only
	smoother Smoother
	seen     uint32

	index      int
	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate     uint32 = 1 << 0
	IsReadOnly      uint32 = 1 << 1
	IsWrapAround    uint32 = 1 << 2
	IsList          uint32 = 1 << 3
	IsHidden        uint32 = 1 << 4
	IsProgramChange uint32 = 1 << 15
	IsBypass        uint32 = 1 << 16
)

// KeyID derives a stable numeric id from a parameter key.
func KeyID(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() &^ (1 << 31)
}

// Index returns the parameter's position in its store.
func (p *Parameter) Index() int { return p.index }

// Automatable reports whether hosts may automate the parameter.
func (p *Parameter) Automatable() bool { return p.Flags&CanAutomate != 0 }

// SetPlain clamps plain to the range and publishes the new value.
func (p *Parameter) SetPlain(plain float64) {
	plain = p.Range.Clamp(plain)
	p.publish(plain, p.Range.Normalize(plain))
}

// SetNormalized clamps normalized to [0, 1] and publishes the new value.
// Discrete parameters snap to the nearest step.
func (p *Parameter) SetNormalized(normalized float64) {
	plain := p.Range.Denormalize(normalized)
	if p.Range.Discrete() || normalized < 0 || normalized > 1 || math.IsNaN(normalized) {
		normalized = p.Range.Normalize(plain)
	}
	p.publish(plain, normalized)
}

func (p *Parameter) publish(plain, normalized float64) {
	p.cell.Store(float32(plain), float32(normalized))
	p.gen.Add(1)
}

// Plain returns the current plain value.
func (p *Parameter) Plain() float64 {
	plain, _ := p.cell.Load()
	return float64(plain)
}

// Normalized returns the current normalized value.
func (p *Parameter) Normalized() float64 {
	_, normalized := p.cell.Load()
	return float64(normalized)
}

// Pair returns the plain and normalized values from the same write.
func (p *Parameter) Pair() (plain, normalized float64) {
	pl, n := p.cell.Load()
	return float64(pl), float64(n)
}

// Normalize converts a plain value to [0, 1] using the parameter's range.
func (p *Parameter) Normalize(plain float64) float64 {
	return p.Range.Normalize(plain)
}

// Denormalize converts a normalized value to the parameter's plain range.
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Range.Denormalize(normalized)
}

// DefaultNormalized returns the default value in normalized form.
func (p *Parameter) DefaultNormalized() float64 {
	return p.Range.Normalize(p.Default)
}

// Smoothed returns the parameter's smoother after picking up the latest
// value. Call from the audio thread only.
func (p *Parameter) Smoothed() *Smoother {
	p.sync()
	return &p.smoother
}

// SmootherState reports the smoother without picking up new values. Only
// valid while no process call is running.
func (p *Parameter) SmootherState() (current float64, ramping bool) {
	return p.smoother.Current(), p.smoother.IsSmoothing()
}

// sync retargets the smoother when the value changed since the last look.
func (p *Parameter) sync() {
	g := p.gen.Load()
	if g == p.seen {
		return
	}
	p.seen = g
	plain, _ := p.cell.Load()
	p.smoother.SetTarget(float64(plain))
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns formatted parameter value
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)

	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}

	switch p.Range.Kind {
	case RangeEnum:
		return p.Range.Names[int(plain)]
	case RangeBool:
		return OnOffFormatter(plain)
	case RangeInt:
		return fmt.Sprintf("%.0f", plain)
	}
	if p.Unit != "" {
		return fmt.Sprintf("%.2f %s", plain, p.Unit)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a display string into a normalized value.
func (p *Parameter) ParseValue(str string) (float64, error) {
	if p.parseFunc != nil {
		plain, err := p.parseFunc(str)
		if err != nil {
			return 0, err
		}
		return p.Normalize(plain), nil
	}

	switch p.Range.Kind {
	case RangeEnum:
		plain, err := EnumParser(p.Range.Names)(str)
		if err != nil {
			return 0, err
		}
		return p.Normalize(plain), nil
	case RangeBool:
		plain, err := OnOffParser(str)
		if err != nil {
			return 0, err
		}
		return p.Normalize(plain), nil
	}
	plain, err := parseFloat(trimUnit(str, p.Unit))
	if err != nil {
		return 0, err
	}
	return p.Normalize(plain), nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	return v, nil
}
