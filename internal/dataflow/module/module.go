package module

import (
	"github.com/jmylchreest/signalgraph/internal/dataflow/packet"
	"github.com/jmylchreest/signalgraph/internal/dataflow/port"
)

// Module is the processing unit contract every pipeline node implements:
// zero or more inputs, zero or more outputs, a process step, and an
// optional flush on end-of-stream.
type Module interface {
	NumInputs() int
	Input(i int) *port.Input
	NumOutputs() int
	Output(i int) *port.Output
	// Process pulls from inputs, pushes to outputs. Called by the
	// pipeline's driving goroutine for this module.
	Process() error
	// Flush drains internal state on end-of-stream. The pipeline does not
	// call it; a null terminator reaches a module through Process like
	// any other packet.
	Flush() error
}

// Base provides the input/output bookkeeping every Module embeds: ports
// are created up front (AddInput/AddOutput) and discovered by index, per
// spec §4.4.
type Base struct {
	inputs  []*port.Input
	outputs []*port.Output
}

// AddInput appends a new input (created with the given push-notify hook)
// and returns it.
func (b *Base) AddInput(onPush func()) *port.Input {
	in := port.NewInput(onPush)
	b.inputs = append(b.inputs, in)
	return in
}

// AddOutput appends a new output and returns it.
func (b *Base) AddOutput(out *port.Output) *port.Output {
	b.outputs = append(b.outputs, out)
	return out
}

// NumInputs implements Module.
func (b *Base) NumInputs() int { return len(b.inputs) }

// Input implements Module.
func (b *Base) Input(i int) *port.Input {
	if i < 0 || i >= len(b.inputs) {
		return nil
	}
	return b.inputs[i]
}

// NumOutputs implements Module.
func (b *Base) NumOutputs() int { return len(b.outputs) }

// Output implements Module.
func (b *Base) Output(i int) *port.Output {
	if i < 0 || i >= len(b.outputs) {
		return nil
	}
	return b.outputs[i]
}

// Flush is a no-op default; modules with internal state to drain override
// it.
func (b *Base) Flush() error { return nil }

// PostToAllOutputs posts p to every output, for example a null packet
// forwarding end-of-stream; the pipeline itself does not call it. It
// returns the first error any output's receivers returned.
func (b *Base) PostToAllOutputs(p *packet.Packet) error {
	var firstErr error
	for _, o := range b.outputs {
		if _, err := o.Post(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SingleInput provides Process for modules with exactly one input, calling
// ProcessOne once per popped packet — the "ModuleS" specialization.
type SingleInput struct {
	Base
	ProcessOne func(p *packet.Packet) error
}

// Process implements Module by popping exactly one packet from input 0
// and dispatching it to ProcessOne.
func (s *SingleInput) Process() error {
	in := s.Input(0)
	if in == nil {
		return nil
	}
	p := in.Pop()
	if p == nil {
		return nil
	}
	return s.ProcessOne(p)
}

// DynamicInputs provides on-demand input growth — "ModuleDynI": Input(i)
// creates inputs up to i if they don't exist yet, so callers can wire
// arbitrarily many producers without pre-sizing the module.
type DynamicInputs struct {
	Base
	NewInputHook func() func()
}

// Input returns the input at index i, creating it (and any gap indices)
// first if necessary.
func (d *DynamicInputs) Input(i int) *port.Input {
	for d.NumInputs() <= i {
		var hook func()
		if d.NewInputHook != nil {
			hook = d.NewInputHook()
		}
		d.AddInput(hook)
	}
	return d.Base.Input(i)
}

// Active provides the work-loop-until-false driving pattern — "ActiveModule":
// Process repeatedly calls Work until it returns false.
type Active struct {
	Base
	Work func() (bool, error)
}

// Process implements Module by looping Work until it signals completion.
func (a *Active) Process() error {
	for {
		more, err := a.Work()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
