package sweep

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/raymcbride/neural-networks/internal/net"
)

// SummaryFile is the name of the per-sweep summary written to OutDir.
const SummaryFile = "summary.csv"

// Result is the outcome of one run.
type Result struct {
	Config   net.Config
	Test     net.Report
	Validate net.Report
	Elapsed  time.Duration
	Err      error
}

// Sweeper trains, tests and validates every configuration of a grid.
// Runs share nothing but the read-only data slices.
type Sweeper struct {
	Grid     Grid
	Train    []float64
	Test     []float64
	Validate []float64

	// OutDir receives <id>T_details.csv, <id>V_details.csv and summary.csv.
	// Empty discards results.
	OutDir string
	// Workers bounds concurrent runs; 0 uses runtime.NumCPU().
	Workers int
	Log     *logrus.Entry
}

type job struct {
	index int
	cfg   net.Config
}

// Run sweeps the grid for each family (all of them if none are given).
// Results are returned in grid order. Cancelling ctx stops new runs from
// starting; runs already in progress complete. The returned error is the
// first run failure, or the context error.
func (s *Sweeper) Run(ctx context.Context, families ...net.Family) ([]Result, error) {
	families = uniqueFamilies(families)
	if err := s.Grid.Validate(families...); err != nil {
		return nil, err
	}
	for name, data := range map[string][]float64{"train": s.Train, "test": s.Test, "validate": s.Validate} {
		if len(data) == 0 {
			return nil, errors.Wrapf(net.ErrEmptySequence, "%s data", name)
		}
	}

	log := s.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var jobs []job
	for _, f := range families {
		for _, cfg := range s.Grid.Runs(f) {
			jobs = append(jobs, job{index: len(jobs), cfg: cfg})
		}
	}

	numWorkers := s.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(jobs))

	log.WithFields(logrus.Fields{
		"runs":    len(jobs),
		"workers": numWorkers,
	}).Info("sweep started")

	results := make([]Result, len(jobs))
	done := atomic.NewInt64(0)
	failed := atomic.NewInt64(0)
	queue := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				r := s.run(j.cfg, log)
				results[j.index] = r
				if r.Err != nil {
					failed.Inc()
				}
				log.WithFields(logrus.Fields{
					"id":       j.cfg.ID,
					"done":     done.Inc(),
					"total":    len(jobs),
					"validate": r.Validate.Mean,
				}).Debug("run finished")
			}
		}()
	}

	issued := 0
issue:
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break issue
		case queue <- j:
			issued++
		}
	}
	close(queue)
	wg.Wait()
	results = results[:issued]

	log.WithFields(logrus.Fields{
		"done":   done.Load(),
		"failed": failed.Load(),
	}).Info("sweep finished")

	if s.OutDir != "" {
		if err := writeSummary(filepath.Join(s.OutDir, SummaryFile), results); err != nil {
			return results, err
		}
	}
	if err := ctx.Err(); err != nil && issued < len(jobs) {
		return results, errors.Wrap(err, "sweep interrupted")
	}
	for _, r := range results {
		if r.Err != nil {
			return results, errors.Wrapf(r.Err, "run %s", r.Config.ID)
		}
	}
	return results, nil
}

// uniqueFamilies drops repeated families, keeping first-seen order.
// Repeats would queue runs with the same ID and detail files.
func uniqueFamilies(families []net.Family) []net.Family {
	if len(families) == 0 {
		return net.Families
	}
	seen := make(map[net.Family]bool, len(families))
	out := make([]net.Family, 0, len(families))
	for _, f := range families {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// run trains one network, then tests and validates it.
func (s *Sweeper) run(cfg net.Config, log *logrus.Entry) Result {
	start := time.Now()
	r := Result{Config: cfg}
	r.Test, r.Validate, r.Err = s.evaluate(cfg, log)
	r.Elapsed = time.Since(start)
	return r
}

func (s *Sweeper) evaluate(cfg net.Config, log *logrus.Entry) (test, validate net.Report, err error) {
	n, err := net.New(cfg, net.WithLogger(log))
	if err != nil {
		return test, validate, err
	}
	if err := n.Train(s.Train); err != nil {
		return test, validate, err
	}

	sink, err := s.sink(cfg.ID, "T")
	if err != nil {
		return test, validate, err
	}
	if test, err = n.Test(s.Test, sink); err != nil {
		return test, validate, err
	}

	if sink, err = s.sink(cfg.ID, "V"); err != nil {
		return test, validate, err
	}
	validate, err = n.Validate(s.Validate, sink)
	return test, validate, err
}

func (s *Sweeper) sink(id, suffix string) (net.ResultSink, error) {
	if s.OutDir == "" {
		return net.Discard, nil
	}
	return net.NewDetailSink(s.OutDir, id, suffix)
}

var summaryHeader = []string{
	"id", "family", "inputs", "hidden", "delays", "memory_depth",
	"learning_rate", "momentum", "epochs",
	"test_mean", "test_stddev", "validate_mean", "validate_stddev",
	"seconds", "error",
}

func writeSummary(path string, results []Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create summary")
	}
	defer f.Close()

	ff := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	w := csv.NewWriter(f)
	w.Write(summaryHeader)
	for _, r := range results {
		c := r.Config
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		w.Write([]string{
			c.ID, c.Family.String(),
			strconv.Itoa(c.Inputs), strconv.Itoa(c.Hidden), strconv.Itoa(c.Delays), ff(c.MemoryDepth),
			ff(c.LearningRate), ff(c.Momentum), strconv.Itoa(c.Epochs),
			ff(r.Test.Mean), ff(r.Test.StdDev), ff(r.Validate.Mean), ff(r.Validate.StdDev),
			strconv.FormatFloat(r.Elapsed.Seconds(), 'f', 3, 64), msg,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "write summary")
	}
	return errors.Wrap(f.Close(), "close summary")
}
