package neuron

import "fmt"

// DelayLine is a fixed-length buffer of past activations, newest first.
type DelayLine struct {
	taps []float64
}

// NewDelayLine creates a delay line of n taps, all zero.
func NewDelayLine(n int) *DelayLine {
	if n < 1 {
		panic(fmt.Sprintf("neuron: delay line length must be positive, got %d", n))
	}
	return &DelayLine{taps: make([]float64, n)}
}

// Push shifts every tap back by one, drops the oldest and stores v at the front.
func (d *DelayLine) Push(v float64) {
	copy(d.taps[1:], d.taps[:len(d.taps)-1])
	d.taps[0] = v
}

// Sum returns the sum of all taps.
func (d *DelayLine) Sum() float64 {
	var sum float64
	for _, v := range d.taps {
		sum += v
	}
	return sum
}

// Len returns the number of taps.
func (d *DelayLine) Len() int {
	return len(d.taps)
}

// Taps returns a copy of the taps.
func (d *DelayLine) Taps() []float64 {
	out := make([]float64, len(d.taps))
	copy(out, d.taps)
	return out
}
