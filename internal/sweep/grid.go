// Package sweep runs hyperparameter grids of independent networks on a
// bounded worker pool.
package sweep

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/raymcbride/neural-networks/internal/net"
)

// Grid lists the values swept for every hyperparameter.
type Grid struct {
	Inputs        []int     `json:"inputs"`
	Hidden        []int     `json:"hidden"`
	Delays        []int     `json:"delays"`
	MemoryDepths  []float64 `json:"memory_depths"`
	LearningRates []float64 `json:"learning_rates"`
	Momenta       []float64 `json:"momenta"`
	Epochs        []int     `json:"epochs"`
	Slope         float64   `json:"slope"`
	// Seed, if non-zero, seeds run i with Seed+i.
	Seed int64 `json:"seed"`
}

// DefaultGrid returns the full experiment grid.
func DefaultGrid() Grid {
	return Grid{
		Inputs:        []int{5, 10, 15},
		Hidden:        []int{5, 10, 15},
		Delays:        []int{1, 2, 3},
		MemoryDepths:  []float64{0.1, 0.5, 0.9},
		LearningRates: []float64{0.01, 0.2, 0.8},
		Momenta:       []float64{0, 0.1, 0.5, 0.9},
		Epochs:        []int{1000, 3000, 5000, 7000, 10000},
		Slope:         1,
	}
}

// LoadGrid reads a JSON grid. Missing fields keep their DefaultGrid values.
func LoadGrid(path string) (Grid, error) {
	g := DefaultGrid()
	data, err := os.ReadFile(path)
	if err != nil {
		return g, errors.Wrap(err, "read grid")
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return g, errors.Wrapf(err, "parse grid %s", path)
	}
	return g, nil
}

type dim struct {
	name string
	n    int
}

// Validate checks that every dimension the families need is non-empty.
func (g Grid) Validate(families ...net.Family) error {
	dims := []dim{
		{"inputs", len(g.Inputs)},
		{"hidden", len(g.Hidden)},
		{"learning_rates", len(g.LearningRates)},
		{"momenta", len(g.Momenta)},
		{"epochs", len(g.Epochs)},
	}
	for _, f := range families {
		switch f {
		case net.TDNN:
			dims = append(dims, dim{"delays", len(g.Delays)})
		case net.RNN:
			dims = append(dims, dim{"memory_depths", len(g.MemoryDepths)})
		}
	}
	for _, d := range dims {
		if d.n == 0 {
			return errors.Wrapf(net.ErrInvalidConfig, "grid has no %s", d.name)
		}
	}
	return nil
}

// Runs expands the grid into one configuration per combination for the
// family. The loop order is inputs, hidden, the family's own dimension
// (delays or memory depth), learning rate, momentum, epochs; IDs carry the
// index of each dimension, e.g. "TDNN_0_2_1_0_3_4_".
func (g Grid) Runs(f net.Family) []net.Config {
	var extra int
	switch f {
	case net.TDNN:
		extra = len(g.Delays)
	case net.RNN:
		extra = len(g.MemoryDepths)
	default:
		extra = 1
	}

	var runs []net.Config
	for i, inputs := range g.Inputs {
		for j, hidden := range g.Hidden {
			for k := 0; k < extra; k++ {
				for m, lr := range g.LearningRates {
					for p, momentum := range g.Momenta {
						for q, epochs := range g.Epochs {
							cfg := net.DefaultConfig(f)
							cfg.Inputs = inputs
							cfg.Hidden = hidden
							cfg.LearningRate = lr
							cfg.Momentum = momentum
							cfg.Epochs = epochs
							if g.Slope != 0 {
								cfg.Slope = g.Slope
							}

							idx := []int{i, j, k, m, p, q}
							// Parameters a family does not use are zeroed.
							cfg.Delays, cfg.MemoryDepth = 0, 0
							switch f {
							case net.TDNN:
								cfg.Delays = g.Delays[k]
							case net.RNN:
								cfg.MemoryDepth = g.MemoryDepths[k]
							default:
								idx = []int{i, j, m, p, q}
							}
							cfg.ID = runID(f, idx)
							if g.Seed != 0 {
								cfg.Seed = g.Seed + int64(len(runs))
							}
							runs = append(runs, cfg)
						}
					}
				}
			}
		}
	}
	return runs
}

func runID(f net.Family, idx []int) string {
	var b strings.Builder
	b.WriteString(f.String())
	b.WriteByte('_')
	for _, i := range idx {
		fmt.Fprintf(&b, "%d_", i)
	}
	return b.String()
}
