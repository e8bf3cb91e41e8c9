// Package neuron provides the activation units and weighted connections
// that make up a network. Units live in an arena owned by the network;
// synapses refer to them by index.
package neuron

import (
	"fmt"

	"github.com/raymcbride/neural-networks/internal/activations"
)

// Kind tags the behaviour of a Neuron.
type Kind uint8

const (
	// Plain units sum their inputs and squash them through an activation.
	Plain Kind = iota
	// Bias units always output -1.
	Bias
	// Context units re-inject a decayed copy of the previous hidden activation.
	Context
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Bias:
		return "bias"
	case Context:
		return "context"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

const (
	biasOutput     = -1.0
	contextInitial = 0.5
)

// Unit is the capability set shared by every kind of neuron.
type Unit interface {
	Accumulate(x float64)
	SetBias(x float64)
	Activate()
	ActivateDelayed()
	Output() float64
}

var _ Unit = (*Neuron)(nil)

// Neuron is a single activation unit.
type Neuron struct {
	kind Kind
	act  activations.Activation

	// Rotating input register. Writes overwrite slot next and advance it;
	// the summation reads every slot.
	inputs []float64
	next   int
	bias   float64

	// Context state
	current  float64
	previous float64
	depth    float64

	delay  *DelayLine
	output float64
}

// NewInput creates an input unit that passes its value through unchanged.
// delays > 0 attaches a delay line of that length.
func NewInput(delays int) Neuron {
	return newPlain(activations.Identity{}, 1, delays)
}

// NewHidden creates a sigmoid unit with fanIn ordinary incoming connections.
func NewHidden(slope float64, fanIn, delays int) Neuron {
	return newPlain(activations.NewSigmoid(slope), fanIn, delays)
}

// NewOutput creates the sigmoid output unit.
func NewOutput(slope float64, fanIn int) Neuron {
	return newPlain(activations.NewSigmoid(slope), fanIn, 0)
}

func newPlain(act activations.Activation, fanIn, delays int) Neuron {
	if fanIn < 1 {
		panic(fmt.Sprintf("neuron: fan-in must be positive, got %d", fanIn))
	}
	if delays < 0 {
		panic(fmt.Sprintf("neuron: delay count must not be negative, got %d", delays))
	}
	n := Neuron{
		kind:   Plain,
		act:    act,
		inputs: make([]float64, fanIn),
	}
	if delays > 0 {
		n.delay = NewDelayLine(delays)
	}
	return n
}

// NewBias creates a bias unit.
func NewBias() Neuron {
	return Neuron{kind: Bias}
}

// NewContext creates a context unit with the given memory depth.
func NewContext(depth float64) Neuron {
	return Neuron{
		kind:    Context,
		depth:   depth,
		current: contextInitial,
	}
}

// Kind returns the unit kind.
func (n *Neuron) Kind() Kind {
	return n.kind
}

// FanIn returns the size of the input register.
func (n *Neuron) FanIn() int {
	return len(n.inputs)
}

// Accumulate writes one input contribution.
// Plain units overwrite the oldest register slot. Context units shift their
// current input into memory. Bias units ignore it.
func (n *Neuron) Accumulate(x float64) {
	switch n.kind {
	case Plain:
		n.inputs[n.next] = x
		n.next = (n.next + 1) % len(n.inputs)
	case Context:
		n.previous = n.current
		n.current = x
	}
}

// SetBias stores the bias contribution. It is kept apart from ordinary inputs.
func (n *Neuron) SetBias(x float64) {
	if n.kind == Plain {
		n.bias = x
	}
}

// Bias returns the stored bias contribution.
func (n *Neuron) Bias() float64 {
	return n.bias
}

func (n *Neuron) summation() float64 {
	var sum float64
	for _, x := range n.inputs {
		sum += x
	}
	return sum + n.bias
}

// Activate computes the output from the current inputs.
func (n *Neuron) Activate() {
	switch n.kind {
	case Plain:
		n.output = n.act.Activate(n.summation())
	case Bias:
		n.output = biasOutput
	case Context:
		n.output = n.current + n.previous*n.depth
	}
}

// ActivateDelayed computes the plain activation, pushes it onto the delay
// line and replaces the output with the sum of all taps.
// It panics if the unit has no delay line.
func (n *Neuron) ActivateDelayed() {
	if n.delay == nil {
		panic(fmt.Sprintf("neuron: %s unit has no delay line", n.kind))
	}
	n.Activate()
	n.delay.Push(n.output)
	n.output = n.delay.Sum()
}

// Output returns the last computed output.
func (n *Neuron) Output() float64 {
	return n.output
}

// Derivative returns the activation derivative at the given output value.
func (n *Neuron) Derivative(y float64) float64 {
	if n.act == nil {
		return 0
	}
	return n.act.FromOutput(y)
}

// Delays returns the delay line length, or 0 without one.
func (n *Neuron) Delays() int {
	if n.delay == nil {
		return 0
	}
	return n.delay.Len()
}

// Taps returns a copy of the delay line, newest first.
func (n *Neuron) Taps() []float64 {
	if n.delay == nil {
		return nil
	}
	return n.delay.Taps()
}

// Tap returns the i-th newest entry of the delay line.
// It panics if the unit has no delay line.
func (n *Neuron) Tap(i int) float64 {
	if n.delay == nil {
		panic(fmt.Sprintf("neuron: %s unit has no delay line", n.kind))
	}
	return n.delay.taps[i]
}

// taps exposes the delay buffer without copying, for gradient computation.
func (n *Neuron) taps() []float64 {
	if n.delay == nil {
		return nil
	}
	return n.delay.taps
}
