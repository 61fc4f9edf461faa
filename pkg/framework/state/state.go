// Package state persists a plugin's parameter values and opaque extra state.
//
// A session is an ordered mapping from parameter key to normalized value plus
// an extra byte blob owned by the plugin. Loading is best-effort: unknown
// keys are ignored, unreadable fields are reported and left at their
// defaults, and a load never fails outright.
package state

import (
	"errors"
	"fmt"

	"github.com/justyntemme/plugkit/pkg/framework/param"
)

// Version is the current document version.
const Version = 1

// ErrSerialization is matched by every SerializationError.
var ErrSerialization = errors.New("state: serialization error")

// SerializationError describes one unreadable part of a saved session.
type SerializationError struct {
	Key    string // parameter key or document field; empty for the whole document
	Reason string
}

func (e *SerializationError) Error() string {
	if e.Key == "" {
		return "state: " + e.Reason
	}
	return fmt.Sprintf("state: %s: %s", e.Key, e.Reason)
}

// Is reports whether target is ErrSerialization.
func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

// Document is a decoded session.
type Document struct {
	Version int
	Plugin  string
	Params  []param.KeyValue
	Extra   []byte
}

// Values returns the parameters as a key to normalized value mapping.
// A key that appears twice keeps its last value.
func (d Document) Values() map[string]float64 {
	m := make(map[string]float64, len(d.Params))
	for _, kv := range d.Params {
		m[kv.Key] = kv.Value
	}
	return m
}

// LoadReport records what happened while loading a session.
type LoadReport struct {
	Version int
	Applied int
	Unknown []string
	Invalid []string
	Errors  []*SerializationError
}

func (r *LoadReport) addError(key, format string, args ...any) {
	r.Errors = append(r.Errors, &SerializationError{Key: key, Reason: fmt.Sprintf(format, args...)})
}

// Err joins every SerializationError, or returns nil if the load was clean.
func (r LoadReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Merge folds another report into r.
func (r *LoadReport) Merge(other LoadReport) {
	if other.Version != 0 {
		r.Version = other.Version
	}
	r.Applied += other.Applied
	r.Unknown = append(r.Unknown, other.Unknown...)
	r.Invalid = append(r.Invalid, other.Invalid...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Capture snapshots the store's normalized values in declaration order.
func Capture(store *param.Store, pluginID string, extra []byte) Document {
	return Document{
		Version: Version,
		Plugin:  pluginID,
		Params:  store.Serialize(),
		Extra:   extra,
	}
}

// Apply writes the document's values into the store. Parameters the document
// does not mention keep their current value; callers wanting defaults for
// them reset the store first.
func Apply(store *param.Store, doc Document) LoadReport {
	res := store.Deserialize(doc.Values())
	return LoadReport{
		Version: doc.Version,
		Applied: res.Applied,
		Unknown: res.Unknown,
		Invalid: res.Invalid,
	}
}

func checkVersion(v int, rep *LoadReport) {
	rep.Version = v
	if v > Version {
		rep.addError("version", "version %d is newer than supported version %d", v, Version)
	}
}
