package json

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/chop-dbhi/data-profiler/profile"
)

// Supported formats.
const (
	FormatJSON   = "json"
	FormatLDJSON = "ldjson"
)

// recorder receives the flattened fields of each object.
type recorder interface {
	record(path string, v profile.Value, t profile.ValueType)
	incr()
}

type inferRecorder struct {
	p *profile.Inferrer
}

func (r inferRecorder) record(path string, v profile.Value, t profile.ValueType) {
	r.p.RecordType(path, v, t)
}

func (r inferRecorder) incr() { r.p.Incr() }

type sessionRecorder struct {
	s *profile.Session
}

func (r sessionRecorder) record(path string, v profile.Value, _ profile.ValueType) {
	r.s.Record(path, v)
}

func (r sessionRecorder) incr() { r.s.Incr() }

type analyzer struct {
	r recorder
}

func (a *analyzer) parseField(path, field string, value interface{}) error {
	fp := path + field

	switch x := value.(type) {
	case nil:
		a.r.record(fp, profile.Null(), profile.NullType)

	// Nested object.
	case map[string]interface{}:
		return a.parseMap(fp+"/", x)

	// Array.
	case []interface{}:
		for _, v := range x {
			if err := a.parseField(path, field, v); err != nil {
				return err
			}
		}

	case bool:
		a.r.record(fp, profile.String(strconv.FormatBool(x)), profile.BoolType)

	case string:
		var t profile.ValueType

		if _, ok := profile.ParseDate(x); ok {
			t = profile.DateType
		} else if _, ok := profile.ParseDateTime(x); ok {
			t = profile.DateTimeType
		} else {
			t = profile.StringType
		}

		a.r.record(fp, profile.String(x), t)

	case json.Number:
		if v, err := x.Int64(); err == nil {
			a.r.record(fp, profile.Int(v), profile.IntType)
		} else if v, err := x.Float64(); err == nil {
			a.r.record(fp, profile.Float(v), profile.FloatType)
		} else {
			return fmt.Errorf("json: could not parse number %q at %s", x, fp)
		}

	default:
		return fmt.Errorf("json: unsupported type %T at %s", value, fp)
	}

	return nil
}

// types are identified relative to the path.
func (a *analyzer) parseMap(path string, m map[string]interface{}) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	// Keys are visited in order so column indexes are stable.
	sort.Strings(keys)

	for _, k := range keys {
		if err := a.parseField(path, k, m[k]); err != nil {
			return err
		}
	}

	return nil
}

func (a *analyzer) parseLDJSON(r io.Reader) error {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for s.Scan() {
		line := bytes.TrimSpace(s.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()

		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			return err
		}

		if err := a.parseMap("", m); err != nil {
			return err
		}

		a.r.incr()
	}

	return s.Err()
}

func (a *analyzer) parseJSON(r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if tok != json.Delim('[') {
		return fmt.Errorf("expected array, got: %v", tok)
	}

	// More elements in the array.
	for dec.More() {
		var m map[string]interface{}
		if err := dec.Decode(&m); err != nil {
			return err
		}

		if err := a.parseMap("", m); err != nil {
			return err
		}

		a.r.incr()
	}

	return nil
}

func (a *analyzer) parse(in io.Reader, format string) error {
	switch format {
	case FormatLDJSON:
		return a.parseLDJSON(in)
	case FormatJSON:
		return a.parseJSON(in)
	}

	return fmt.Errorf("json: unsupported format %q", format)
}

// Infer returns the inferred shape of every field. Nested fields are named
// by their slash separated path.
func Infer(config *profile.Config, in io.Reader, format string) (*profile.Profile, error) {
	p := profile.NewInferrer(config)

	a := analyzer{r: inferRecorder{p}}
	if err := a.parse(in, format); err != nil {
		return nil, err
	}

	return p.Profile(), nil
}

// Profile feeds every object to the session and returns its results. The
// session's columns must already be declared.
func Profile(in io.Reader, format string, s *profile.Session) (*profile.Profile, error) {
	a := analyzer{r: sessionRecorder{s}}
	if err := a.parse(in, format); err != nil {
		return nil, err
	}

	return s.Profile(), nil
}
