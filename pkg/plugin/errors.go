package plugin

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is matched by every ContractViolation.
	ErrContractViolation = errors.New("plugin: contract violation")
	// ErrUnknownParameter is returned for keys the store does not hold.
	ErrUnknownParameter = errors.New("plugin: unknown parameter")
	// ErrUnsupportedLayout is returned for channel layouts the plugin refuses.
	ErrUnsupportedLayout = errors.New("plugin: unsupported channel layout")
)

// ContractViolation reports a call the host made in the wrong phase or with
// arguments that do not match the negotiated setup. It indicates a host
// adapter bug and must not be ignored.
type ContractViolation struct {
	Op     string
	Phase  Phase
	Detail string
}

func (e *ContractViolation) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("plugin: %s in phase %s: %s", e.Op, e.Phase, e.Detail)
	}
	return fmt.Sprintf("plugin: %s in phase %s", e.Op, e.Phase)
}

// Is reports whether target is ErrContractViolation.
func (e *ContractViolation) Is(target error) bool { return target == ErrContractViolation }

// InitError reports that the plugin could not prepare for a setup. The host
// adapter must refuse activation.
type InitError struct {
	SampleRate   float64
	MaxBlockSize int
	Err          error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("plugin: initialize at %g Hz, %d samples: %v", e.SampleRate, e.MaxBlockSize, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
