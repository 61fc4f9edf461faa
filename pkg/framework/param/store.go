package param

import (
	"fmt"
	"math"
	"slices"
)

// Store owns a plugin's fixed parameter set. It is built once and never
// grows or shrinks; lookups are safe from any thread.
type Store struct {
	params []*Parameter
	byKey  map[string]int
	byID   map[uint32]int
	bypass *Parameter
}

// KeyValue is one entry of a serialized store.
type KeyValue struct {
	Key   string
	Value float64
}

// DeserializeResult describes what Deserialize did with its input.
type DeserializeResult struct {
	Applied int
	Unknown []string
	Invalid []string
}

// NewStore validates the declarations and builds a store in declaration
// order. Parameters without an ID get one derived from their key.
func NewStore(params ...*Parameter) (*Store, error) {
	s := &Store{
		params: make([]*Parameter, 0, len(params)),
		byKey:  make(map[string]int, len(params)),
		byID:   make(map[uint32]int, len(params)),
	}
	for _, p := range params {
		if err := s.add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) add(p *Parameter) error {
	if p == nil {
		return &ConfigurationError{Err: fmt.Errorf("%w: nil declaration", ErrInvalidParameter)}
	}
	if p.Key == "" {
		return &ConfigurationError{Key: p.Name, Err: fmt.Errorf("%w: empty key", ErrInvalidParameter)}
	}
	if _, ok := s.byKey[p.Key]; ok {
		return &ConfigurationError{Key: p.Key, Err: ErrDuplicateParameterKey}
	}
	if err := p.Range.Validate(); err != nil {
		return &ConfigurationError{Key: p.Key, Err: fmt.Errorf("%w: %v", ErrInvalidParameter, err)}
	}
	if math.IsNaN(p.Default) || p.Default < p.Range.Min || p.Default > p.Range.Max {
		return &ConfigurationError{Key: p.Key, Err: fmt.Errorf("%w: default %g outside [%g, %g]",
			ErrInvalidParameter, p.Default, p.Range.Min, p.Range.Max)}
	}
	if p.ID == 0 {
		p.ID = KeyID(p.Key)
	}
	if other, ok := s.byID[p.ID]; ok {
		return &ConfigurationError{Key: p.Key, Err: fmt.Errorf("%w: id %d already used by %q",
			ErrDuplicateParameterKey, p.ID, s.params[other].Key)}
	}
	if p.Flags&IsBypass != 0 && s.bypass != nil {
		return &ConfigurationError{Key: p.Key, Err: fmt.Errorf("%w: second bypass parameter", ErrInvalidParameter)}
	}

	p.index = len(s.params)
	p.smoother = Smoother{policy: p.Smoothing}
	p.SetPlain(p.Default)
	p.seen = p.gen.Load()
	p.smoother.Reset(p.Plain())

	s.byKey[p.Key] = p.index
	s.byID[p.ID] = p.index
	s.params = append(s.params, p)
	if p.Flags&IsBypass != 0 {
		s.bypass = p
	}
	return nil
}

// Len returns the number of parameters.
func (s *Store) Len() int { return len(s.params) }

// At returns the parameter at declaration index i.
func (s *Store) At(i int) *Parameter { return s.params[i] }

// Lookup returns the parameter with the given key.
func (s *Store) Lookup(key string) (*Parameter, bool) {
	i, ok := s.byKey[key]
	if !ok {
		return nil, false
	}
	return s.params[i], true
}

// Index returns the declaration index of key.
func (s *Store) Index(key string) (int, bool) {
	i, ok := s.byKey[key]
	return i, ok
}

// ByID returns the parameter with the given numeric id.
func (s *Store) ByID(id uint32) (*Parameter, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return s.params[i], true
}

// Bypass returns the bypass parameter, if one was declared.
func (s *Store) Bypass() *Parameter { return s.bypass }

// Each calls fn for every parameter in declaration order.
func (s *Store) Each(fn func(*Parameter)) {
	for _, p := range s.params {
		fn(p)
	}
}

// SetSampleRate updates every smoother's time base. Control thread, while
// no process call is running.
func (s *Store) SetSampleRate(sampleRate float64) {
	for _, p := range s.params {
		p.smoother.SetSampleRate(sampleRate)
	}
}

// Sync retargets smoothers for every parameter written since the last sync.
// Audio thread only.
func (s *Store) Sync() {
	for _, p := range s.params {
		p.sync()
	}
}

// TickAll advances every smoother by n samples, less whatever the plugin
// already consumed with Next. Audio thread only.
func (s *Store) TickAll(n int) {
	for _, p := range s.params {
		p.sync()
		p.smoother.tick(n)
	}
}

// ResetSmoothers makes every smoother idle at its current interpolated
// value. The next sync ramps towards the published value again.
func (s *Store) ResetSmoothers() {
	for _, p := range s.params {
		p.smoother.Reset(p.smoother.Current())
		p.seen = p.gen.Load() - 1
	}
}

// SnapSmoothers makes every smoother idle at the published value.
func (s *Store) SnapSmoothers() {
	for _, p := range s.params {
		p.seen = p.gen.Load()
		p.smoother.Reset(p.Plain())
	}
}

// ResetToDefaults sets every parameter back to its default value.
func (s *Store) ResetToDefaults() {
	for _, p := range s.params {
		p.SetPlain(p.Default)
	}
}

// Serialize returns every normalized value in declaration order.
func (s *Store) Serialize() []KeyValue {
	out := make([]KeyValue, len(s.params))
	for i, p := range s.params {
		out[i] = KeyValue{Key: p.Key, Value: p.Normalized()}
	}
	return out
}

// Deserialize applies normalized values by key. Unknown keys are skipped,
// non-finite values leave the parameter untouched and missing keys are left
// alone. Both kinds are reported in the result.
func (s *Store) Deserialize(values map[string]float64) DeserializeResult {
	var res DeserializeResult
	for key, v := range values {
		p, ok := s.Lookup(key)
		if !ok {
			res.Unknown = append(res.Unknown, key)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			res.Invalid = append(res.Invalid, key)
			continue
		}
		p.SetNormalized(v)
		res.Applied++
	}
	slices.Sort(res.Unknown)
	slices.Sort(res.Invalid)
	return res
}
