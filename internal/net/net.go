// Package net provides the network orchestrator that trains and evaluates
// MLP, TDNN and RNN predictors on a scalar time series.
package net

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/raymcbride/neural-networks/internal/loss"
	"github.com/raymcbride/neural-networks/internal/neuron"
	"github.com/raymcbride/neural-networks/internal/opt"
)

// State is the current activity of a network.
type State int

const (
	Idle State = iota
	Training
	Testing
	Validating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Training:
		return "training"
	case Testing:
		return "testing"
	case Validating:
		return "validating"
	default:
		return "unknown"
	}
}

// suffix returns the detail file suffix for a sweep mode.
func (s State) suffix() string {
	if s == Validating {
		return "V"
	}
	return "T"
}

const errorLabel = "Error"

// Network is a three-layer predictor with a single output unit.
// It owns every unit and synapse; layers are index slices into units.
// A Network is not safe for concurrent use.
type Network struct {
	cfg       Config
	strategy  strategy
	rule      opt.Optimizer
	loss      loss.Loss
	log       *logrus.Entry
	callbacks []Callback

	units      []neuron.Neuron
	inputs     []int
	hidden     []int
	context    []int
	output     int
	biasHidden int
	biasOutput int

	inputToHidden   [][]neuron.Synapse
	hiddenToOutput  []neuron.Synapse
	biasToHidden    []neuron.Synapse
	biasToOutput    neuron.Synapse
	contextToHidden []neuron.Synapse
	hiddenToContext []neuron.Synapse

	// Per-step state
	data             []float64
	target           float64
	outputErrorTerm  float64
	hiddenErrorTerms []float64

	// Training cursor
	next             int
	epoch            int
	accumulatedError float64
	state            State
}

// Option customises a Network at construction.
type Option func(*options)

type options struct {
	rand      *rand.Rand
	log       *logrus.Entry
	callbacks []Callback
}

// WithRand sets the generator used for weight initialisation.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

// WithLogger sets the logger. Family and ID fields are added to it.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) { o.log = l }
}

// WithCallbacks registers training callbacks.
func WithCallbacks(cbs ...Callback) Option {
	return func(o *options) { o.callbacks = append(o.callbacks, cbs...) }
}

// New builds a network from cfg. Invalid configurations are rejected here.
func New(cfg Config, opts ...Option) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, apply := range opts {
		apply(&o)
	}
	if o.rand == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		o.rand = rand.New(rand.NewSource(seed))
	}
	if o.log == nil {
		o.log = logrus.NewEntry(logrus.StandardLogger())
	}

	n := &Network{
		cfg:              cfg,
		strategy:         strategyFor(cfg.Family),
		rule:             opt.NewMomentum(cfg.LearningRate, cfg.Momentum),
		loss:             loss.HalfSquared{},
		log:              o.log.WithFields(logrus.Fields{"family": cfg.Family, "id": cfg.ID}),
		callbacks:        o.callbacks,
		hiddenErrorTerms: make([]float64, cfg.Hidden),
	}
	n.createNeurons()
	n.connectNeurons(o.rand)
	return n, nil
}

// NewMLP builds a multilayer perceptron.
func NewMLP(cfg Config, opts ...Option) (*Network, error) {
	cfg.Family = MLP
	return New(cfg, opts...)
}

// NewTDNN builds a time-delay network.
func NewTDNN(cfg Config, opts ...Option) (*Network, error) {
	cfg.Family = TDNN
	return New(cfg, opts...)
}

// NewRNN builds an Elman recurrent network.
func NewRNN(cfg Config, opts ...Option) (*Network, error) {
	cfg.Family = RNN
	return New(cfg, opts...)
}

func (n *Network) add(u neuron.Neuron) int {
	n.units = append(n.units, u)
	return len(n.units) - 1
}

func (n *Network) createNeurons() {
	cfg := n.cfg
	n.units = make([]neuron.Neuron, 0, cfg.Inputs+2*cfg.Hidden+3)

	n.inputs = make([]int, cfg.Inputs)
	for i := range n.inputs {
		n.inputs[i] = n.add(neuron.NewInput(cfg.delays()))
	}
	n.hidden = make([]int, cfg.Hidden)
	for i := range n.hidden {
		n.hidden[i] = n.add(neuron.NewHidden(cfg.Slope, cfg.hiddenFanIn(), cfg.delays()))
	}
	n.output = n.add(neuron.NewOutput(cfg.Slope, cfg.Hidden))
	n.biasHidden = n.add(neuron.NewBias())
	n.biasOutput = n.add(neuron.NewBias())

	if cfg.Family == RNN {
		n.context = make([]int, cfg.Hidden)
		for i := range n.context {
			n.context[i] = n.add(neuron.NewContext(cfg.MemoryDepth))
		}
	}
}

// connectNeurons wires the layers. Weights are drawn from r in a fixed order
// so a seed fully determines the initial network.
func (n *Network) connectNeurons(r *rand.Rand) {
	n.inputToHidden = make([][]neuron.Synapse, len(n.inputs))
	for i, in := range n.inputs {
		n.inputToHidden[i] = make([]neuron.Synapse, len(n.hidden))
		for j, h := range n.hidden {
			n.inputToHidden[i][j] = neuron.NewSynapse(in, h, r.Float64())
		}
	}

	n.hiddenToOutput = make([]neuron.Synapse, len(n.hidden))
	n.biasToHidden = make([]neuron.Synapse, len(n.hidden))
	for i, h := range n.hidden {
		n.hiddenToOutput[i] = neuron.NewSynapse(h, n.output, r.Float64())
		n.biasToHidden[i] = neuron.NewSynapse(n.biasHidden, h, r.Float64())
	}
	n.biasToOutput = neuron.NewSynapse(n.biasOutput, n.output, r.Float64())

	if n.context != nil {
		n.contextToHidden = make([]neuron.Synapse, len(n.context))
		n.hiddenToContext = make([]neuron.Synapse, len(n.context))
		for i, c := range n.context {
			n.contextToHidden[i] = neuron.NewFixedSynapse(c, n.hidden[i])
			n.hiddenToContext[i] = neuron.NewFixedSynapse(n.hidden[i], c)
		}
	}
}

// loadWindow feeds the window starting at the cursor into the input layer.
// The window wraps around the end of the data; the target is the sample
// under the window's last position.
func (n *Network) loadWindow(delayed bool) {
	size := len(n.data)
	for i, in := range n.inputs {
		unit := &n.units[in]
		unit.Accumulate(n.data[(n.next+i)%size])
		if delayed {
			unit.ActivateDelayed()
		} else {
			unit.Activate()
		}
	}
	n.units[n.biasHidden].Activate()
	n.units[n.biasOutput].Activate()
	n.target = n.data[(n.next+len(n.inputs)-1)%size]
}

func (n *Network) sendToHidden() {
	for i := range n.inputToHidden {
		for j := range n.inputToHidden[i] {
			n.inputToHidden[i][j].Transfer(n.units)
		}
	}
	for i := range n.biasToHidden {
		n.biasToHidden[i].Transfer(n.units)
	}
	if n.strategy.toHidden != nil {
		n.strategy.toHidden(n)
	}
}

func (n *Network) sendToOutput() {
	for i := range n.hiddenToOutput {
		n.hiddenToOutput[i].Transfer(n.units)
	}
	n.biasToOutput.Transfer(n.units)
	if n.strategy.toOutput != nil {
		n.strategy.toOutput(n)
	}
}

// forward frames the next window and propagates it to the output unit.
func (n *Network) forward() float64 {
	n.strategy.frame(n)
	n.sendToHidden()
	n.strategy.hiddenOutput(n)
	n.sendToOutput()
	out := &n.units[n.output]
	out.Activate()
	return out.Output()
}

// trainStep runs one full online update and advances the cursor.
func (n *Network) trainStep() {
	out := n.forward()
	n.accumulatedError += n.loss.Forward(n.target, out)

	n.outputErrorTerm = n.units[n.output].Derivative(out) * n.loss.Backward(n.target, out)
	n.strategy.outputDeltas(n)
	n.strategy.hiddenError(n)
	n.strategy.hiddenDeltas(n)

	// Every delta above was computed from pre-update weights.
	n.adjustWeights()
	n.advance()
}

func (n *Network) adjustWeights() {
	for i := range n.hiddenToOutput {
		n.hiddenToOutput[i].Adjust()
	}
	n.biasToOutput.Adjust()
	for i := range n.inputToHidden {
		for j := range n.inputToHidden[i] {
			n.inputToHidden[i][j].Adjust()
		}
	}
	for i := range n.biasToHidden {
		n.biasToHidden[i].Adjust()
	}
	for i := range n.contextToHidden {
		n.contextToHidden[i].Adjust()
	}
}

// advance moves the cursor, closing the epoch when it wraps.
func (n *Network) advance() {
	if n.next < len(n.data)-1 {
		n.next++
		return
	}
	for _, cb := range n.callbacks {
		cb.OnEpochEnd(n.epoch, n.accumulatedError, n)
	}
	n.next = 0
	n.accumulatedError = 0
	n.epoch++
}

// load resets the cursor onto a new sequence.
func (n *Network) load(data []float64) {
	n.data = data
	n.next = 0
	n.epoch = 0
	n.accumulatedError = 0
}

// Train runs the configured number of epochs over data. One epoch is
// len(data) online updates regardless of the window size.
func (n *Network) Train(data []float64) error {
	if len(data) == 0 {
		return errors.Wrap(ErrEmptySequence, "train")
	}
	if n.state != Idle {
		return errors.Wrapf(ErrBusy, "train while %s", n.state)
	}
	n.state = Training
	defer func() { n.state = Idle }()

	n.load(data)
	n.log.WithFields(logrus.Fields{
		"samples": len(data),
		"epochs":  n.cfg.Epochs,
	}).Debug("training started")
	for _, cb := range n.callbacks {
		cb.OnTrainBegin(n)
	}

	start := time.Now()
	for n.epoch < n.cfg.Epochs {
		if n.next == 0 {
			for _, cb := range n.callbacks {
				cb.OnEpochBegin(n.epoch, n)
			}
		}
		n.trainStep()
	}

	for _, cb := range n.callbacks {
		cb.OnTrainEnd(n)
	}
	n.log.WithField("elapsed", time.Since(start)).Debug("training finished")
	return nil
}

// Test runs one pass over data without updating weights, recording the
// error of every step to sink. The sink is closed when the pass ends.
func (n *Network) Test(data []float64, sink ResultSink) (Report, error) {
	return n.sweep(data, sink, Testing)
}

// Validate is Test for the validation slice.
func (n *Network) Validate(data []float64, sink ResultSink) (Report, error) {
	return n.sweep(data, sink, Validating)
}

func (n *Network) sweep(data []float64, sink ResultSink, mode State) (rep Report, err error) {
	if sink == nil {
		sink = Discard
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close result sink")
		}
	}()

	if len(data) == 0 {
		return Report{}, errors.Wrap(ErrEmptySequence, mode.String())
	}
	if n.state != Idle {
		return Report{}, errors.Wrapf(ErrBusy, "%s while %s", mode, n.state)
	}
	n.state = mode
	defer func() { n.state = Idle }()

	n.data = data
	errs := make([]float64, 0, len(data))
	for n.next = 0; n.next < len(data); n.next++ {
		out := n.forward()
		e := n.loss.Forward(n.target, out)
		errs = append(errs, e)
		if err := sink.Record(errorLabel, e); err != nil {
			return Report{}, errors.Wrapf(err, "record step %d", n.next)
		}
	}
	n.next = 0

	rep = newReport(n.cfg, mode, errs)
	n.log.WithFields(logrus.Fields{
		"mode": mode,
		"mean": rep.Mean,
	}).Debug("sweep finished")
	return rep, nil
}

// Predict propagates an explicit window and returns the output.
// Weights are untouched; delay lines and context units advance as in a test step.
func (n *Network) Predict(window []float64) (float64, error) {
	if len(window) != len(n.inputs) {
		return 0, errors.Wrapf(ErrWindowSize, "got %d values for %d inputs", len(window), len(n.inputs))
	}
	if n.state != Idle {
		return 0, errors.Wrapf(ErrBusy, "predict while %s", n.state)
	}
	data, next := n.data, n.next
	n.data, n.next = window, 0
	out := n.forward()
	n.data, n.next = data, next
	return out, nil
}

// Weights returns every synapse weight in a stable order: input to hidden
// (row-major), hidden to output, bias to hidden, bias to output, then the
// fixed context synapses.
func (n *Network) Weights() []float64 {
	w := make([]float64, 0, n.numSynapses())
	for i := range n.inputToHidden {
		for j := range n.inputToHidden[i] {
			w = append(w, n.inputToHidden[i][j].Weight())
		}
	}
	for i := range n.hiddenToOutput {
		w = append(w, n.hiddenToOutput[i].Weight())
	}
	for i := range n.biasToHidden {
		w = append(w, n.biasToHidden[i].Weight())
	}
	w = append(w, n.biasToOutput.Weight())
	for i := range n.contextToHidden {
		w = append(w, n.contextToHidden[i].Weight())
	}
	for i := range n.hiddenToContext {
		w = append(w, n.hiddenToContext[i].Weight())
	}
	return w
}

func (n *Network) numSynapses() int {
	return len(n.inputs)*len(n.hidden) + 2*len(n.hidden) + 1 + 2*len(n.context)
}

// Config returns the configuration the network was built with.
func (n *Network) Config() Config { return n.cfg }

// Epoch returns the number of completed epochs.
func (n *Network) Epoch() int { return n.epoch }

// Cursor returns the index of the next window start.
func (n *Network) Cursor() int { return n.next }

// AccumulatedError returns the error summed over the current epoch so far.
func (n *Network) AccumulatedError() float64 { return n.accumulatedError }

// State returns what the network is doing.
func (n *Network) State() State { return n.state }

// Logger returns the network's logger.
func (n *Network) Logger() *logrus.Entry { return n.log }
