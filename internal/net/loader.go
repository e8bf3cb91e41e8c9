package net

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultField is the element name holding values in index data files.
const DefaultField = "indexValue"

// LoadSequence reads a sequence file and min-max normalizes it.
// .xml files read the elements named field; .csv files read the column whose
// header is field, or whose index field parses to.
func LoadSequence(path, field string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sequence")
	}
	defer f.Close()

	var values []float64
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xml":
		if field == "" {
			field = DefaultField
		}
		values, err = LoadSequenceXML(f, field)
	case ".csv":
		values, err = loadCSVField(f, field)
	default:
		return nil, errors.Errorf("unsupported sequence format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return Normalize(values), nil
}
