// Package opt provides the weight update rules used during training.
package opt

// Optimizer computes the change to apply to a single weight.
type Optimizer interface {
	// Delta computes the weight change for one source activation.
	// previous is the change computed on the prior step.
	Delta(errorTerm, activation, previous float64) float64

	// AveragedDelta computes the mean weight change over a set of delayed
	// source activations. Every tap sees the same previous change.
	AveragedDelta(errorTerm float64, taps []float64, previous float64) float64
}

// Momentum is gradient descent with a momentum term:
// delta = lr * errorTerm * activation + momentum * previous
type Momentum struct {
	LearningRate float64
	Momentum     float64
}

// NewMomentum creates a Momentum rule.
func NewMomentum(learningRate, momentum float64) Momentum {
	return Momentum{
		LearningRate: learningRate,
		Momentum:     momentum,
	}
}

// Delta computes lr * errorTerm * activation + momentum * previous
func (m Momentum) Delta(errorTerm, activation, previous float64) float64 {
	return m.LearningRate*errorTerm*activation + m.Momentum*previous
}

// AveragedDelta computes sum_i(lr * errorTerm * taps[i] + momentum * previous) / len(taps).
// The momentum contribution is not compounded from tap to tap.
func (m Momentum) AveragedDelta(errorTerm float64, taps []float64, previous float64) float64 {
	if len(taps) == 0 {
		panic("Momentum.AveragedDelta: no taps")
	}
	var sum float64
	for _, tap := range taps {
		sum += m.Delta(errorTerm, tap, previous)
	}
	return sum / float64(len(taps))
}
