package neuron

import (
	"fmt"

	"github.com/raymcbride/neural-networks/internal/opt"
)

// Synapse is a weighted connection between two units of an arena.
// It does not own its endpoints.
type Synapse struct {
	from, to int
	weight   float64
	delta    float64
	fixed    bool
}

// NewSynapse connects units[from] to units[to] with the given weight.
func NewSynapse(from, to int, weight float64) Synapse {
	return Synapse{from: from, to: to, weight: weight}
}

// NewFixedSynapse connects two units with a weight pinned to 1.
func NewFixedSynapse(from, to int) Synapse {
	return Synapse{from: from, to: to, weight: 1, fixed: true}
}

// From returns the source unit index.
func (s *Synapse) From() int { return s.from }

// To returns the destination unit index.
func (s *Synapse) To() int { return s.to }

// Weight returns the current weight.
func (s *Synapse) Weight() float64 { return s.weight }

// Delta returns the pending weight change.
func (s *Synapse) Delta() float64 { return s.delta }

// Fixed reports whether the weight is pinned.
func (s *Synapse) Fixed() bool { return s.fixed }

// SetWeight overrides the weight. Fixed synapses ignore it.
func (s *Synapse) SetWeight(w float64) {
	if !s.fixed {
		s.weight = w
	}
}

// ComputeDelta sets the pending change from the source unit's output.
func (s *Synapse) ComputeDelta(units []Neuron, rule opt.Optimizer, errorTerm float64) {
	s.delta = rule.Delta(errorTerm, units[s.from].Output(), s.delta)
}

// ComputeDelayedDelta sets the pending change to the average over the first
// taps entries of the source unit's delay line.
func (s *Synapse) ComputeDelayedDelta(units []Neuron, rule opt.Optimizer, errorTerm float64, taps int) {
	buf := units[s.from].taps()
	if taps < 1 || taps > len(buf) {
		panic(fmt.Sprintf("neuron: cannot average %d taps over a delay line of %d", taps, len(buf)))
	}
	s.delta = rule.AveragedDelta(errorTerm, buf[:taps], s.delta)
}

// Adjust applies the pending change to the weight.
func (s *Synapse) Adjust() {
	if !s.fixed {
		s.weight += s.delta
	}
}

// Transfer writes the weighted source output into the destination unit.
// Bias sources feed the destination's bias, everything else its inputs.
func (s *Synapse) Transfer(units []Neuron) {
	src := &units[s.from]
	v := src.Output() * s.weight
	if src.Kind() == Bias {
		units[s.to].SetBias(v)
		return
	}
	units[s.to].Accumulate(v)
}
