package net

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report summarises one test or validation sweep.
type Report struct {
	Family Family
	ID     string
	Mode   State
	Errors []float64
	Sum    float64
	Mean   float64
	StdDev float64
}

func newReport(cfg Config, mode State, errs []float64) Report {
	r := Report{
		Family: cfg.Family,
		ID:     cfg.ID,
		Mode:   mode,
		Errors: errs,
	}
	if len(errs) == 0 {
		return r
	}
	r.Sum = floats.Sum(errs)
	r.Mean = stat.Mean(errs, nil)
	if len(errs) > 1 {
		r.StdDev = stat.StdDev(errs, nil)
	}
	return r
}

// Suffix returns "T" for test reports and "V" for validation reports.
func (r Report) Suffix() string {
	return r.Mode.suffix()
}
