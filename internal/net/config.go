package net

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Family selects the network architecture.
type Family int

const (
	// MLP is a plain multilayer perceptron.
	MLP Family = iota
	// TDNN is a time-delay network: input and hidden units carry delay lines.
	TDNN
	// RNN is an Elman network with a context layer fed back into the hidden layer.
	RNN
)

// Families lists every supported architecture.
var Families = []Family{MLP, TDNN, RNN}

func (f Family) String() string {
	switch f {
	case MLP:
		return "MLP"
	case TDNN:
		return "TDNN"
	case RNN:
		return "RNN"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Valid reports whether f names a supported architecture.
func (f Family) Valid() bool {
	return f >= MLP && f <= RNN
}

// ParseFamily parses "mlp", "tdnn" or "rnn" (case-insensitive).
func ParseFamily(s string) (Family, error) {
	for _, f := range Families {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return 0, errors.Errorf("unknown network family %q", s)
}

// Config holds the topology and training hyperparameters of one network.
type Config struct {
	Family       Family
	Inputs       int     // window length
	Hidden       int     // hidden layer size
	Delays       int     // delay line length (TDNN)
	MemoryDepth  float64 // context decay (RNN)
	Slope        float64 // sigmoid steepness
	LearningRate float64
	Momentum     float64
	Epochs       int
	Seed         int64 // weight initialisation seed; 0 picks one from the clock
	ID           string
}

// DefaultConfig returns a small working configuration for the given family.
func DefaultConfig(f Family) Config {
	return Config{
		Family:       f,
		Inputs:       5,
		Hidden:       5,
		Delays:       1,
		MemoryDepth:  0.5,
		Slope:        1,
		LearningRate: 0.2,
		Momentum:     0.1,
		Epochs:       1000,
	}
}

// Validate checks the configuration. Every failure wraps ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case !c.Family.Valid():
		return errors.Wrapf(ErrInvalidConfig, "unknown family %d", int(c.Family))
	case c.Inputs < 1:
		return errors.Wrapf(ErrInvalidConfig, "inputs must be positive, got %d", c.Inputs)
	case c.Hidden < 1:
		return errors.Wrapf(ErrInvalidConfig, "hidden units must be positive, got %d", c.Hidden)
	case c.Family == TDNN && c.Delays < 1:
		return errors.Wrapf(ErrInvalidConfig, "delays must be positive, got %d", c.Delays)
	case !(c.Slope > 0) || math.IsInf(c.Slope, 0):
		return errors.Wrapf(ErrInvalidConfig, "slope must be positive and finite, got %v", c.Slope)
	case !finite(c.LearningRate):
		return errors.Wrapf(ErrInvalidConfig, "learning rate must be finite, got %v", c.LearningRate)
	case !finite(c.Momentum):
		return errors.Wrapf(ErrInvalidConfig, "momentum must be finite, got %v", c.Momentum)
	case c.Family == RNN && !finite(c.MemoryDepth):
		return errors.Wrapf(ErrInvalidConfig, "memory depth must be finite, got %v", c.MemoryDepth)
	case c.Epochs < 0:
		return errors.Wrapf(ErrInvalidConfig, "epochs must not be negative, got %d", c.Epochs)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// delays returns the delay line length units are built with.
func (c Config) delays() int {
	if c.Family == TDNN {
		return c.Delays
	}
	return 0
}

// hiddenFanIn returns the number of ordinary connections into each hidden unit.
func (c Config) hiddenFanIn() int {
	if c.Family == RNN {
		return c.Inputs + 1
	}
	return c.Inputs
}
