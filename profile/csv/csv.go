package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chop-dbhi/data-profiler/profile"
)

// Profiler reads delimited text. A first pass infers the column types and
// a second pass feeds the typed values to a profiling session.
type Profiler struct {
	Config    *profile.Config
	Delimiter byte
	Header    bool

	// Number of malformed records skipped during the last pass.
	Skipped int64
}

func NewProfiler() *Profiler {
	return &Profiler{
		Delimiter: ',',
		Header:    true,
	}
}

// scan calls fn for every data record. Cells missing from short records
// are passed as empty strings.
func (x *Profiler) scan(in io.Reader, fn func(header, record []string)) error {
	x.Skipped = 0

	cr := csv.NewReader(in)
	cr.Comma = rune(x.Delimiter)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// First record, may be the header.
	record, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv: read header: %w", err)
	}

	header := make([]string, len(record))
	if x.Header {
		for i, n := range record {
			header[i] = strings.ToLower(strings.TrimSpace(n))
		}
	} else {
		for i := range record {
			header[i] = fmt.Sprintf("c%d", i)
		}

		fn(header, record)
	}

	row := make([]string, len(header))

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			x.Skipped++
			continue
		}

		if err != nil {
			return fmt.Errorf("csv: read record: %w", err)
		}

		clear(row)
		copy(row, record)

		fn(header, row)
	}

	return nil
}

// Infer returns the inferred shape of every column.
func (x *Profiler) Infer(in io.Reader) (*profile.Profile, error) {
	p := profile.NewInferrer(x.Config)

	var header []string

	err := x.scan(in, func(h, record []string) {
		header = h

		for i, field := range h {
			val := record[i]

			// Treat empty strings as a null value.
			if val == "" {
				p.RecordType(field, profile.Null(), profile.NullType)
			} else {
				p.Record(field, val)
			}
		}

		p.Incr()
	})
	if err != nil {
		return nil, err
	}

	pf := p.Profile()

	// Set the index of the field.
	for idx, name := range header {
		if c, ok := pf.Columns[name]; ok {
			c.Index = idx
		}
	}

	return pf, nil
}

// Profile feeds every record to the session and returns its results. The
// session's columns must already be declared.
func (x *Profiler) Profile(in io.Reader, s *profile.Session) (*profile.Profile, error) {
	err := x.scan(in, func(h, record []string) {
		for i, field := range h {
			s.RecordRaw(field, record[i])
		}

		s.Incr()
	})
	if err != nil {
		return nil, err
	}

	return s.Profile(), nil
}
