package net

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
)

// LoadSequenceXML reads the text of every element named field, in document order.
func LoadSequenceXML(r io.Reader, field string) ([]float64, error) {
	dec := xml.NewDecoder(r)
	var values []float64
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read xml")
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != field {
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return nil, errors.Wrapf(err, "decode <%s>", field)
		}
		v, err := parseValue(text)
		if err != nil {
			return nil, errors.Wrapf(err, "<%s> %d", field, len(values))
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, errors.Wrapf(ErrEmptySequence, "no <%s> elements", field)
	}
	return values, nil
}
