package net

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// LoadSequenceCSV reads one column of a CSV stream as a sequence.
// hasHeader skips the first row.
func LoadSequenceCSV(r io.Reader, column int, hasHeader bool) ([]float64, error) {
	if column < 0 {
		return nil, errors.Errorf("column must not be negative, got %d", column)
	}
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if hasHeader && len(records) > 0 {
		records = records[1:]
	}
	return parseColumn(records, column, hasHeader)
}

// loadCSVField resolves field as a header name, then as a column index.
// The first row is treated as a header when it does not parse as a number.
func loadCSVField(r io.Reader, field string) ([]float64, error) {
	records, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Wrap(ErrEmptySequence, "csv")
	}

	column := -1
	for i, name := range records[0] {
		if field != "" && strings.EqualFold(strings.TrimSpace(name), field) {
			column = i
			break
		}
	}
	if column < 0 {
		if field == "" {
			column = 0
		} else if column, err = strconv.Atoi(field); err != nil || column < 0 {
			return nil, errors.Errorf("csv has no column %q", field)
		}
	}

	hasHeader := false
	if column < len(records[0]) {
		if _, err := parseValue(records[0][column]); err != nil {
			hasHeader = true
		}
	}
	if hasHeader {
		records = records[1:]
	}
	return parseColumn(records, column, hasHeader)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	return records, nil
}

func parseColumn(records [][]string, column int, hasHeader bool) ([]float64, error) {
	first := 0
	if hasHeader {
		first = 1
	}
	values := make([]float64, 0, len(records))
	for i, record := range records {
		if column >= len(record) {
			return nil, errors.Errorf("row %d has %d columns, want column %d", i+first, len(record), column)
		}
		v, err := parseValue(record[column])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+first)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, errors.Wrap(ErrEmptySequence, "csv")
	}
	return values, nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %q", s)
	}
	return v, nil
}

// Normalize min-max scales values into [0,1]. A constant sequence maps to 0.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := floats.Min(values), floats.Max(values)
	diff := max - min
	if diff == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / diff
	}
	return out
}
