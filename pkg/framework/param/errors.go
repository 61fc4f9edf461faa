package param

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateParameterKey is returned when two declarations share a key or id.
	ErrDuplicateParameterKey = errors.New("duplicate parameter key")
	// ErrInvalidParameter is returned for declarations with an unusable range or default.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ConfigurationError reports a parameter declaration that prevents a store
// from being built.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("parameter %q: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
