package net

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// ResultSink receives one labelled value per test or validation step.
type ResultSink interface {
	Record(label string, value float64) error
	Close() error
}

// CSVSink writes label,value rows.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink writes to w. If w is an io.Closer it is closed with the sink.
func NewCSVSink(w io.Writer) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// DetailPath returns the detail file path for a run: <dir>/<id><suffix>_details.csv.
func DetailPath(dir, id, suffix string) string {
	return filepath.Join(dir, id+suffix+"_details.csv")
}

// NewDetailSink creates the per-run detail file, creating dir if needed.
func NewDetailSink(dir, id, suffix string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}
	path := DetailPath(dir, id, suffix)
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return NewCSVSink(f), nil
}

func (s *CSVSink) Record(label string, value float64) error {
	return s.w.Write([]string{label, strconv.FormatFloat(value, 'g', -1, 64)})
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}

// Record is one labelled value held by a MemorySink.
type Record struct {
	Label string
	Value float64
}

// MemorySink keeps records in memory.
type MemorySink struct {
	mu      sync.Mutex
	Records []Record
	Closed  bool
}

func (s *MemorySink) Record(label string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Closed {
		return errors.New("record on closed sink")
	}
	s.Records = append(s.Records, Record{Label: label, Value: value})
	return nil
}

func (s *MemorySink) Close() error {
	s.mu.Lock()
	s.Closed = true
	s.mu.Unlock()
	return nil
}

// Values returns the recorded values in order.
func (s *MemorySink) Values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]float64, len(s.Records))
	for i, r := range s.Records {
		v[i] = r.Value
	}
	return v
}

type discard struct{}

func (discard) Record(string, float64) error { return nil }
func (discard) Close() error                 { return nil }

// Discard drops every record.
var Discard ResultSink = discard{}
