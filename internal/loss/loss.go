// Package loss provides the per-sample loss used to score predictions.
package loss

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between the target and the prediction.
	Forward(target, output float64) float64

	// Backward computes the error signal fed into the output error term.
	Backward(target, output float64) float64
}

// HalfSquared is the squared error scaled by one half.
type HalfSquared struct{}

// Forward computes 0.5 * (target - output)^2
func (HalfSquared) Forward(target, output float64) float64 {
	diff := target - output
	return 0.5 * diff * diff
}

// Backward computes target - output, the negated derivative of Forward
// with respect to output.
func (HalfSquared) Backward(target, output float64) float64 {
	return target - output
}
