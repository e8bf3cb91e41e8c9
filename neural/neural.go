// Package neural is the public entry point for building, training and
// evaluating the MLP, TDNN and RNN time-series predictors.
package neural

import (
	"context"

	"github.com/raymcbride/neural-networks/internal/net"
	"github.com/raymcbride/neural-networks/internal/sweep"
)

// Re-export common types and functions for easier access
type (
	Network    = net.Network
	Config     = net.Config
	Family     = net.Family
	Option     = net.Option
	Report     = net.Report
	ResultSink = net.ResultSink
	Callback   = net.Callback
	History    = net.History
	Logger     = net.Logger
	MemorySink = net.MemorySink
	Grid       = sweep.Grid
	Sweeper    = sweep.Sweeper
	Result     = sweep.Result
)

// Families
const (
	MLP  = net.MLP
	TDNN = net.TDNN
	RNN  = net.RNN
)

// Errors
var (
	ErrInvalidConfig = net.ErrInvalidConfig
	ErrEmptySequence = net.ErrEmptySequence
	ErrBusy          = net.ErrBusy
	ErrWindowSize    = net.ErrWindowSize
)

// Discard drops every test record.
var Discard = net.Discard

// Network creation
func New(cfg Config, opts ...Option) (*Network, error) {
	return net.New(cfg, opts...)
}

func DefaultConfig(f Family) Config {
	return net.DefaultConfig(f)
}

func ParseFamily(s string) (Family, error) {
	return net.ParseFamily(s)
}

// Options
var (
	WithRand      = net.WithRand
	WithLogger    = net.WithLogger
	WithCallbacks = net.WithCallbacks
)

// Data
func LoadSequence(path, field string) ([]float64, error) {
	return net.LoadSequence(path, field)
}

func Normalize(values []float64) []float64 {
	return net.Normalize(values)
}

// Results
func NewDetailSink(dir, id, suffix string) (ResultSink, error) {
	s, err := net.NewDetailSink(dir, id, suffix)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func NewCSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

// Sweeps
func DefaultGrid() Grid {
	return sweep.DefaultGrid()
}

func LoadGrid(path string) (Grid, error) {
	return sweep.LoadGrid(path)
}

// Sweep runs every configuration of g for the given families and writes
// detail files and a summary to outDir.
func Sweep(ctx context.Context, g Grid, train, test, validate []float64, outDir string, families ...Family) ([]Result, error) {
	s := &Sweeper{
		Grid:     g,
		Train:    train,
		Test:     test,
		Validate: validate,
		OutDir:   outDir,
	}
	return s.Run(ctx, families...)
}
