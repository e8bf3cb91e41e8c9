// Package activations provides the activation functions used by the network units.
package activations

import "math"

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64

	// FromOutput computes f'(x) given y = f(x).
	// Backpropagation only keeps outputs around, so this is the form it uses.
	FromOutput(y float64) float64
}

// Sigmoid is the logistic function with a configurable steepness.
type Sigmoid struct {
	Slope float64
}

// NewSigmoid creates a Sigmoid with the given slope.
func NewSigmoid(slope float64) Sigmoid {
	return Sigmoid{Slope: slope}
}

// sigmoid computes 1 / (1 + e^-z) without overflowing for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	// Also reached for NaN, which falls through to NaN.
	e := math.Exp(z)
	return e / (1 + e)
}

// Activate computes 1 / (1 + e^(-slope*x))
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(s.Slope * x)
}

// Derivative computes slope * sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	return s.FromOutput(s.Activate(x))
}

// FromOutput computes slope * y * (1 - y)
func (s Sigmoid) FromOutput(y float64) float64 {
	return s.Slope * y * (1 - y)
}

// Identity passes its input through unchanged. Input units use it.
type Identity struct{}

// Activate returns x
func (Identity) Activate(x float64) float64 {
	return x
}

// Derivative returns 1
func (Identity) Derivative(x float64) float64 {
	return 1
}

// FromOutput returns 1
func (Identity) FromOutput(y float64) float64 {
	return 1
}
