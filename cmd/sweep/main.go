// Command sweep trains, tests and validates every configuration of a
// hyperparameter grid for the MLP, TDNN and RNN families.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/raymcbride/neural-networks/internal/net"
	"github.com/raymcbride/neural-networks/internal/sweep"
)

func main() {
	trainPath := flag.String("train", "data/Train500.xml", "training sequence (.xml or .csv)")
	testPath := flag.String("test", "data/Test100.xml", "testing sequence")
	validatePath := flag.String("validate", "data/Validate100.xml", "validating sequence")
	field := flag.String("field", net.DefaultField, "XML element or CSV column holding the values")
	gridPath := flag.String("grid", "", "JSON grid file (default: the full built-in grid)")
	out := flag.String("out", "output", "output directory")
	workers := flag.Int("workers", 0, "concurrent runs (0 uses every CPU)")
	families := flag.String("families", "mlp,tdnn,rnn", "comma-separated families to sweep")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var fams []net.Family
	for _, name := range strings.Split(*families, ",") {
		f, err := net.ParseFamily(strings.TrimSpace(name))
		if err != nil {
			log.Fatal(err)
		}
		fams = append(fams, f)
	}

	grid := sweep.DefaultGrid()
	if *gridPath != "" {
		var err error
		if grid, err = sweep.LoadGrid(*gridPath); err != nil {
			log.Fatal(err)
		}
	}

	load := func(path string) []float64 {
		data, err := net.LoadSequence(path, *field)
		if err != nil {
			log.Fatal(err)
		}
		return data
	}
	s := &sweep.Sweeper{
		Grid:     grid,
		Train:    load(*trainPath),
		Test:     load(*testPath),
		Validate: load(*validatePath),
		OutDir:   *out,
		Workers:  *workers,
		Log:      logrus.NewEntry(log),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := s.Run(ctx, fams...)
	if err != nil {
		log.WithError(err).Error("sweep failed")
		os.Exit(1)
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Validate.Mean < best.Validate.Mean {
			best = r
		}
	}
	log.WithFields(logrus.Fields{
		"id":       best.Config.ID,
		"validate": best.Validate.Mean,
		"test":     best.Test.Mean,
	}).Info("best run")
}
