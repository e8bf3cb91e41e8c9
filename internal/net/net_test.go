package net

import (
	"bytes"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestNetwork(t testing.TB, cfg Config, opts ...Option) *Network {
	t.Helper()
	n, err := New(cfg, append([]Option{WithLogger(quietLog())}, opts...)...)
	require.NoError(t, err)
	return n
}

func testConfig(f Family) Config {
	cfg := DefaultConfig(f)
	cfg.Inputs = 3
	cfg.Hidden = 4
	cfg.Delays = 2
	cfg.Epochs = 5
	cfg.Seed = 42
	return cfg
}

var series = []float64{0.1, 0.35, 0.2, 0.8, 0.55, 0.9, 0.4, 0.05, 0.6, 0.75}

func sig(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func TestNetworkWeightCount(t *testing.T) {
	tests := []struct {
		family Family
		want   int
	}{
		{MLP, 3*4 + 4 + 4 + 1},
		{TDNN, 3*4 + 4 + 4 + 1},
		{RNN, 3*4 + 4 + 4 + 1 + 2*4},
	}
	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			n := newTestNetwork(t, testConfig(tt.family))
			assert.Len(t, n.Weights(), tt.want)
		})
	}
}

func TestNetworkWeightDrawOrder(t *testing.T) {
	cfg := testConfig(MLP)
	n := newTestNetwork(t, cfg, WithRand(rand.New(rand.NewSource(9))))

	r := rand.New(rand.NewSource(9))
	inputToHidden := make([]float64, cfg.Inputs*cfg.Hidden)
	for i := range inputToHidden {
		inputToHidden[i] = r.Float64()
	}
	hiddenToOutput := make([]float64, cfg.Hidden)
	biasToHidden := make([]float64, cfg.Hidden)
	for i := 0; i < cfg.Hidden; i++ {
		hiddenToOutput[i] = r.Float64()
		biasToHidden[i] = r.Float64()
	}
	want := append(append(append(inputToHidden, hiddenToOutput...), biasToHidden...), r.Float64())

	assert.Equal(t, want, n.Weights())
}

func TestNetworkSeedIsDeterministic(t *testing.T) {
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			a := newTestNetwork(t, testConfig(f))
			b := newTestNetwork(t, testConfig(f))
			require.NoError(t, a.Train(series))
			require.NoError(t, b.Train(series))
			assert.Equal(t, a.Weights(), b.Weights())
		})
	}
}

func TestNetworkContextWeightsFixed(t *testing.T) {
	n := newTestNetwork(t, testConfig(RNN))
	require.NoError(t, n.Train(series))
	w := n.Weights()
	for _, v := range w[len(w)-2*4:] {
		assert.Equal(t, 1.0, v)
	}
}

// Stepping the cursor L times closes exactly one epoch for any window size.
func TestNetworkCursorWraps(t *testing.T) {
	for _, length := range []int{1, 2, 3, 7} {
		for _, window := range []int{1, 2, 5, 10} {
			cfg := testConfig(MLP)
			cfg.Inputs = window
			n := newTestNetwork(t, cfg)
			n.load(series[:length])

			for step := 0; step < length; step++ {
				require.Equal(t, 0, n.Epoch(), "L=%d W=%d step %d", length, window, step)
				require.Equal(t, step, n.Cursor())
				n.trainStep()
			}
			assert.Equal(t, 0, n.Cursor(), "L=%d W=%d", length, window)
			assert.Equal(t, 1, n.Epoch(), "L=%d W=%d", length, window)
			assert.Equal(t, 0.0, n.AccumulatedError())
		}
	}
}

func TestNetworkTrainsConfiguredEpochs(t *testing.T) {
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			hist := &History{}
			n := newTestNetwork(t, testConfig(f), WithCallbacks(hist))
			require.NoError(t, n.Train(series))
			assert.Equal(t, 5, n.Epoch())
			assert.Equal(t, 0, n.Cursor())
			assert.Len(t, hist.Errors, 5)
			assert.Equal(t, Idle, n.State())
		})
	}
}

func TestNetworkZeroEpochsLeavesWeights(t *testing.T) {
	cfg := testConfig(MLP)
	cfg.Epochs = 0
	n := newTestNetwork(t, cfg)
	before := n.Weights()
	require.NoError(t, n.Train(series))
	assert.Equal(t, before, n.Weights())
}

// TestNetworkMLPSingleStep checks one online update against a hand computation.
func TestNetworkMLPSingleStep(t *testing.T) {
	cfg := Config{Family: MLP, Inputs: 1, Hidden: 1, Slope: 1, LearningRate: 0.5, Epochs: 1, Seed: 7}
	n := newTestNetwork(t, cfg)
	w := n.Weights()
	wih, who, wbh, wbo := w[0], w[1], w[2], w[3]

	x := 0.3
	h := sig(x*wih - wbh)
	o := sig(h*who - wbo)

	got, err := n.Predict([]float64{x})
	require.NoError(t, err)
	assert.InDelta(t, o, got, 1e-12)

	require.NoError(t, n.Train([]float64{x}))

	dO := o * (1 - o) * (x - o)
	dH := h * (1 - h) * dO * who
	want := []float64{
		wih + 0.5*dH*x,
		who + 0.5*dO*h,
		wbh - 0.5*dH,
		wbo - 0.5*dO,
	}
	assert.True(t, floats.EqualApprox(want, n.Weights(), 1e-12), "want %v, got %v", want, n.Weights())
}

// TestNetworkTDNNTwoSteps follows two updates with delay lines of length 2
// and momentum carried from the first update into the second.
func TestNetworkTDNNTwoSteps(t *testing.T) {
	const lr, m = 0.5, 0.3
	cfg := Config{Family: TDNN, Inputs: 1, Hidden: 1, Delays: 2, Slope: 1, LearningRate: lr, Momentum: m, Epochs: 1, Seed: 7}
	n := newTestNetwork(t, cfg)
	w := n.Weights()
	wih, who, wbh, wbo := w[0], w[1], w[2], w[3]
	x0, x1 := 0.3, 0.7

	// Step 1: input taps [x0 0], hidden taps [h1 0], target x0.
	h1 := sig(x0*wih - wbh)
	o1 := sig(h1*who - wbo)
	dO1 := o1 * (1 - o1) * (x0 - o1)
	dH1 := h1 * (1 - h1) * dO1 * who / 2
	dwho1 := lr * dO1 * (h1 + 0) / 2
	dwbo1 := -lr * dO1
	dwih1 := lr * dH1 * (x0 + 0) / 2
	dwbh1 := -lr * dH1
	wih, who, wbh, wbo = wih+dwih1, who+dwho1, wbh+dwbh1, wbo+dwbo1

	// Step 2: input taps [x1 x0], hidden taps [h2 h1], target x1.
	h2 := sig((x1+x0)*wih - wbh)
	o2 := sig((h2+h1)*who - wbo)
	dO2 := o2 * (1 - o2) * (x1 - o2)
	dH2 := (h2*(1-h2) + h1*(1-h1)) * dO2 * who / 2
	want := []float64{
		wih + lr*dH2*(x1+x0)/2 + m*dwih1,
		who + lr*dO2*(h2+h1)/2 + m*dwho1,
		wbh - lr*dH2 + m*dwbh1,
		wbo - lr*dO2 + m*dwbo1,
	}

	require.NoError(t, n.Train([]float64{x0, x1}))
	assert.True(t, floats.EqualApprox(want, n.Weights(), 1e-12), "want %v, got %v", want, n.Weights())
}

// TestNetworkRNNTwoSteps follows two updates where the context unit feeds
// 0.5 into the first step and h1 + 0.5*depth into the second.
func TestNetworkRNNTwoSteps(t *testing.T) {
	const lr, m, depth = 0.5, 0.3, 0.4
	cfg := Config{Family: RNN, Inputs: 1, Hidden: 1, MemoryDepth: depth, Slope: 1, LearningRate: lr, Momentum: m, Epochs: 1, Seed: 7}
	n := newTestNetwork(t, cfg)
	w := n.Weights()
	wih, who, wbh, wbo := w[0], w[1], w[2], w[3]
	x0, x1 := 0.3, 0.7

	h1 := sig(x0*wih + 0.5 - wbh)
	o1 := sig(h1*who - wbo)
	dO1 := o1 * (1 - o1) * (x0 - o1)
	dH1 := h1 * (1 - h1) * dO1 * who
	dwih1, dwho1 := lr*dH1*x0, lr*dO1*h1
	dwbh1, dwbo1 := -lr*dH1, -lr*dO1
	wih, who, wbh, wbo = wih+dwih1, who+dwho1, wbh+dwbh1, wbo+dwbo1

	h2 := sig(x1*wih + (h1 + 0.5*depth) - wbh)
	o2 := sig(h2*who - wbo)
	dO2 := o2 * (1 - o2) * (x1 - o2)
	dH2 := h2 * (1 - h2) * dO2 * who
	want := []float64{
		wih + lr*dH2*x1 + m*dwih1,
		who + lr*dO2*h2 + m*dwho1,
		wbh - lr*dH2 + m*dwbh1,
		wbo - lr*dO2 + m*dwbo1,
		1, 1,
	}

	require.NoError(t, n.Train([]float64{x0, x1}))
	assert.True(t, floats.EqualApprox(want, n.Weights(), 1e-12), "want %v, got %v", want, n.Weights())
}

func TestNetworkMLPErrorDecreases(t *testing.T) {
	cfg := Config{
		Family:       MLP,
		Inputs:       2,
		Hidden:       3,
		Slope:        1,
		LearningRate: 0.5,
		Momentum:     0,
		Epochs:       300,
		Seed:         1,
	}
	hist := &History{}
	n := newTestNetwork(t, cfg, WithCallbacks(hist))
	require.NoError(t, n.Train([]float64{0.1, 0.4, 0.7, 1.0}))

	require.Len(t, hist.Errors, 300)
	assert.Less(t, hist.Errors[len(hist.Errors)-1], hist.Errors[0])
}

func TestNetworkSweepLeavesWeights(t *testing.T) {
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			n := newTestNetwork(t, testConfig(f))
			require.NoError(t, n.Train(series))
			before := n.Weights()

			_, err := n.Test(series, nil)
			require.NoError(t, err)
			_, err = n.Validate(series[:4], nil)
			require.NoError(t, err)

			assert.True(t, floats.Equal(before, n.Weights()))
			assert.Equal(t, Idle, n.State())
		})
	}
}

func TestNetworkTestRecordsEveryStep(t *testing.T) {
	n := newTestNetwork(t, testConfig(TDNN))
	require.NoError(t, n.Train(series))

	sink := &MemorySink{}
	rep, err := n.Test(series, sink)
	require.NoError(t, err)

	assert.True(t, sink.Closed)
	require.Len(t, sink.Records, len(series))
	for _, r := range sink.Records {
		assert.Equal(t, "Error", r.Label)
		assert.GreaterOrEqual(t, r.Value, 0.0)
	}
	assert.Equal(t, sink.Values(), rep.Errors)
	assert.InDelta(t, stat.Mean(rep.Errors, nil), rep.Mean, 1e-12)
	assert.InDelta(t, floats.Sum(rep.Errors), rep.Sum, 1e-12)
	assert.Equal(t, TDNN, rep.Family)
	assert.Equal(t, "T", rep.Suffix())

	rep, err = n.Validate(series, nil)
	require.NoError(t, err)
	assert.Equal(t, "V", rep.Suffix())
}

func TestNetworkSingleSampleReport(t *testing.T) {
	n := newTestNetwork(t, testConfig(MLP))
	rep, err := n.Test([]float64{0.5}, nil)
	require.NoError(t, err)
	assert.Len(t, rep.Errors, 1)
	assert.Equal(t, 0.0, rep.StdDev)
}

func TestNetworkEmptySequence(t *testing.T) {
	n := newTestNetwork(t, testConfig(MLP))
	assert.Equal(t, ErrEmptySequence, errors.Cause(n.Train(nil)))

	sink := &MemorySink{}
	_, err := n.Test(nil, sink)
	assert.Equal(t, ErrEmptySequence, errors.Cause(err))
	assert.True(t, sink.Closed)
}

type reentrant struct {
	BaseCallback
	err error
}

func (r *reentrant) OnTrainBegin(n *Network) {
	r.err = n.Train(series)
	if r.err == nil {
		_, r.err = n.Test(series, nil)
	}
}

func TestNetworkBusy(t *testing.T) {
	cb := &reentrant{}
	n := newTestNetwork(t, testConfig(MLP), WithCallbacks(cb))
	require.NoError(t, n.Train(series))
	assert.Equal(t, ErrBusy, errors.Cause(cb.err))
}

func TestNetworkInvalidConfig(t *testing.T) {
	mutations := map[string]func(*Config){
		"family":   func(c *Config) { c.Family = Family(9) },
		"inputs":   func(c *Config) { c.Inputs = 0 },
		"hidden":   func(c *Config) { c.Hidden = -1 },
		"delays":   func(c *Config) { c.Family = TDNN; c.Delays = 0 },
		"slope":    func(c *Config) { c.Slope = 0 },
		"rate":     func(c *Config) { c.LearningRate = math.NaN() },
		"momentum": func(c *Config) { c.Momentum = math.Inf(1) },
		"depth":    func(c *Config) { c.Family = RNN; c.MemoryDepth = math.NaN() },
		"epochs":   func(c *Config) { c.Epochs = -1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(MLP)
			mutate(&cfg)
			_, err := New(cfg)
			assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
		})
	}
}

func TestNetworkDelaysIgnoredOutsideTDNN(t *testing.T) {
	cfg := testConfig(MLP)
	cfg.Delays = 0
	_, err := New(cfg, WithLogger(quietLog()))
	assert.NoError(t, err)
}

func TestNetworkNaNPropagates(t *testing.T) {
	data := []float64{0.1, math.NaN(), 0.3, 0.4}
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			n := newTestNetwork(t, testConfig(f))
			require.NotPanics(t, func() {
				require.NoError(t, n.Train(data))
			})
			rep, err := n.Test(data, nil)
			require.NoError(t, err)
			assert.True(t, math.IsNaN(rep.Mean))
		})
	}
}

// After one forward pass the context layer holds the hidden activations,
// with the initial 0.5 shifted into memory.
func TestNetworkContextCopiesHidden(t *testing.T) {
	cfg := testConfig(RNN)
	cfg.MemoryDepth = 0.25
	n := newTestNetwork(t, cfg)
	n.data = series
	n.forward()

	for i, c := range n.context {
		h := n.units[n.hidden[i]].Output()
		ctx := n.units[c]
		ctx.Activate()
		assert.InDelta(t, h+0.5*0.25, ctx.Output(), 1e-12)
	}
}

func TestNetworkPredict(t *testing.T) {
	n := newTestNetwork(t, testConfig(MLP))
	require.NoError(t, n.Train(series))
	before := n.Weights()

	_, err := n.Predict([]float64{0.1})
	assert.Equal(t, ErrWindowSize, errors.Cause(err))

	y, err := n.Predict([]float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.True(t, y > 0 && y < 1)
	assert.Equal(t, before, n.Weights())
	assert.Equal(t, 0, n.Cursor())
}

func TestNetworkFamilyConstructors(t *testing.T) {
	cfg := testConfig(MLP)
	cfg.Seed = 3

	tdnn, err := NewTDNN(cfg, WithLogger(quietLog()))
	require.NoError(t, err)
	assert.Equal(t, TDNN, tdnn.Config().Family)

	rnn, err := NewRNN(cfg, WithLogger(quietLog()))
	require.NoError(t, err)
	assert.Equal(t, RNN, rnn.Config().Family)

	mlp, err := NewMLP(rnn.Config(), WithLogger(quietLog()))
	require.NoError(t, err)
	assert.Equal(t, MLP, mlp.Config().Family)
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families {
		got, err := ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFamily("tdnn")
	require.NoError(t, err)
	assert.Equal(t, TDNN, got)

	_, err = ParseFamily("lstm")
	assert.Error(t, err)
}

func TestNetworkSummary(t *testing.T) {
	cfg := testConfig(RNN)
	cfg.ID = "RNN_0_0_0_0_0_"
	n := newTestNetwork(t, cfg)

	var buf bytes.Buffer
	n.Summary(&buf)
	out := buf.String()
	assert.Contains(t, out, "Model: RNN (RNN_0_0_0_0_0_)")
	assert.Contains(t, out, "Trainable params: 21")
	assert.Contains(t, out, "Fixed params: 8")
}

func TestLoggerCallback(t *testing.T) {
	l := logrus.New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	cfg := testConfig(MLP)
	cfg.Epochs = 4
	n := newTestNetwork(t, cfg, WithCallbacks(Logger{Interval: 2, Log: logrus.NewEntry(l)}))
	require.NoError(t, n.Train(series))

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("epoch finished")))
}
