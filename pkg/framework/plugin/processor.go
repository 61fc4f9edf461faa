package plugin

import (
	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/param"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

// ProcessFunc renders one block in place.
type ProcessFunc func(buf *process.Buffer, ctx *process.Context) process.Status

// SimpleProcessor provides an even simpler base for basic effects: a fixed
// parameter list and a process function.
type SimpleProcessor struct {
	*Base
	params      []*param.Parameter
	processFunc ProcessFunc
}

// NewSimpleProcessor creates a processor with just a process function
func NewSimpleProcessor(info Info, buses *bus.Configuration, params []*param.Parameter, fn ProcessFunc) *SimpleProcessor {
	return &SimpleProcessor{
		Base:        NewBase(info, buses),
		params:      params,
		processFunc: fn,
	}
}

// DeclareParameters returns the parameters given at construction.
func (s *SimpleProcessor) DeclareParameters() []*param.Parameter {
	return s.params
}

// Process runs the process function. Without one the output is left as the
// wrapper prepared it, i.e. a copy of the input.
func (s *SimpleProcessor) Process(buf *process.Buffer, ctx *process.Context) process.Status {
	if s.processFunc == nil {
		return process.Normal
	}
	return s.processFunc(buf, ctx)
}
