package process

import (
	"fmt"
	"math"
)

// StatusKind is the outcome of a process call.
type StatusKind uint8

const (
	StatusNormal StatusKind = iota
	// StatusTail asks the host to keep calling for Tail more samples of silence.
	StatusTail
	// StatusKeepAlive asks the host to keep calling indefinitely.
	StatusKeepAlive
	// StatusError reports that the plugin cannot continue.
	StatusError
)

// InfiniteTail is reported for plugins that never stop producing output.
const InfiniteTail = math.MaxInt32

// Status is returned by a plugin's process call.
type Status struct {
	Kind StatusKind
	Tail int
}

var (
	Normal    = Status{Kind: StatusNormal}
	KeepAlive = Status{Kind: StatusKeepAlive}
	Failed    = Status{Kind: StatusError}
)

// Tail returns a status asking for samples more calls after the input stops.
func Tail(samples int) Status {
	return Status{Kind: StatusTail, Tail: samples}
}

// TailSamples returns the tail length the host should honour: 0 for
// normal processing, InfiniteTail for keep-alive.
func (s Status) TailSamples() int {
	switch s.Kind {
	case StatusTail:
		return s.Tail
	case StatusKeepAlive:
		return InfiniteTail
	}
	return 0
}

// Merge combines the statuses of consecutive sub-blocks. Errors win over
// keep-alive, which wins over the later tail.
func (s Status) Merge(next Status) Status {
	if s.Kind == StatusError || next.Kind == StatusError {
		return Failed
	}
	if s.Kind == StatusKeepAlive || next.Kind == StatusKeepAlive {
		return KeepAlive
	}
	return next
}

func (s Status) String() string {
	switch s.Kind {
	case StatusNormal:
		return "normal"
	case StatusTail:
		return fmt.Sprintf("tail(%d)", s.Tail)
	case StatusKeepAlive:
		return "keep-alive"
	case StatusError:
		return "error"
	}
	return "unknown"
}
