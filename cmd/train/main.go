// Command train trains one network on a sequence file, then tests and
// validates it, writing per-step errors to the output directory.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/raymcbride/neural-networks/internal/net"
)

func main() {
	def := net.DefaultConfig(net.MLP)

	family := flag.String("family", "mlp", "network family: mlp, tdnn or rnn")
	trainPath := flag.String("train", "data/Train500.xml", "training sequence (.xml or .csv)")
	testPath := flag.String("test", "data/Test100.xml", "testing sequence")
	validatePath := flag.String("validate", "data/Validate100.xml", "validating sequence")
	field := flag.String("field", net.DefaultField, "XML element or CSV column holding the values")
	inputs := flag.Int("inputs", def.Inputs, "input window length")
	hidden := flag.Int("hidden", def.Hidden, "hidden units")
	delays := flag.Int("delays", def.Delays, "delay line length (tdnn)")
	depth := flag.Float64("depth", def.MemoryDepth, "context memory depth (rnn)")
	slope := flag.Float64("slope", def.Slope, "sigmoid slope")
	lr := flag.Float64("lr", def.LearningRate, "learning rate")
	momentum := flag.Float64("momentum", def.Momentum, "momentum")
	epochs := flag.Int("epochs", def.Epochs, "training epochs")
	seed := flag.Int64("seed", 0, "weight seed (0 picks one from the clock)")
	id := flag.String("id", "", "run id used in output file names (default <FAMILY>_)")
	out := flag.String("out", "output", "output directory")
	logEvery := flag.Int("log-every", 100, "log the epoch error every n epochs (0 disables)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	f, err := net.ParseFamily(*family)
	if err != nil {
		log.Fatal(err)
	}
	cfg := net.Config{
		Family:       f,
		Inputs:       *inputs,
		Hidden:       *hidden,
		Delays:       *delays,
		MemoryDepth:  *depth,
		Slope:        *slope,
		LearningRate: *lr,
		Momentum:     *momentum,
		Epochs:       *epochs,
		Seed:         *seed,
		ID:           *id,
	}
	if cfg.ID == "" {
		cfg.ID = f.String() + "_"
	}

	if err := run(cfg, *trainPath, *testPath, *validatePath, *field, *out, *logEvery, log); err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func run(cfg net.Config, trainPath, testPath, validatePath, field, out string, logEvery int, log *logrus.Logger) error {
	train, err := net.LoadSequence(trainPath, field)
	if err != nil {
		return err
	}
	test, err := net.LoadSequence(testPath, field)
	if err != nil {
		return err
	}
	validate, err := net.LoadSequence(validatePath, field)
	if err != nil {
		return err
	}

	n, err := net.New(cfg,
		net.WithLogger(logrus.NewEntry(log)),
		net.WithCallbacks(net.Logger{Interval: logEvery}),
	)
	if err != nil {
		return err
	}
	n.Summary(os.Stdout)

	if err := n.Train(train); err != nil {
		return err
	}

	sink, err := net.NewDetailSink(out, cfg.ID, "T")
	if err != nil {
		return err
	}
	testRep, err := n.Test(test, sink)
	if err != nil {
		return err
	}

	if sink, err = net.NewDetailSink(out, cfg.ID, "V"); err != nil {
		return err
	}
	validateRep, err := n.Validate(validate, sink)
	if err != nil {
		return err
	}

	for _, rep := range []net.Report{testRep, validateRep} {
		fmt.Printf("%-10s mean error %.6f  stddev %.6f  -> %s\n",
			rep.Mode, rep.Mean, rep.StdDev, net.DetailPath(out, cfg.ID, rep.Suffix()))
	}
	return nil
}
