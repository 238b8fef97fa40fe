package profile

import (
	"bytes"
	"encoding/json"
)

// Profiler maintains incremental state over the values of one column and
// emits a fixed set of output fields.
//
// A profiler is reset before the first update of a session, updated once
// per value, and asked for results once at the end. Reset starts a new
// session. Implementations are not safe for concurrent use; each column
// gets its own instance.
type Profiler interface {
	// Name identifies the output sub-record.
	Name() string

	// Types are the value types this profiler accepts.
	Types() []ValueType

	// Fields is the ordered output schema. It does not depend on the data.
	Fields() []Field

	// Reset returns the profiler to its empty state.
	Reset()

	// Update observes one value. Absent values and values of types the
	// profiler does not accept are ignored.
	Update(v Value)

	// Results populates every field declared by Fields without mutating
	// the profiler.
	Results() Result
}

// Field is an output field of a profiler.
type Field struct {
	Name string    `json:"name"`
	Type ValueType `json:"type"`
}

// Entry is a named output value.
type Entry struct {
	Name  string
	Value Value
}

// Result is the ordered output of a profiler.
type Result []Entry

// Get returns the value of the named field.
func (r Result) Get(name string) (Value, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.Value, true
		}
	}

	return Value{}, false
}

// MarshalJSON encodes the result as a JSON object preserving field order.
func (r Result) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer

	b.WriteByte('{')

	for i, e := range r {
		if i > 0 {
			b.WriteByte(',')
		}

		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}

		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}

	b.WriteByte('}')

	return b.Bytes(), nil
}

// Accepts reports whether the profiler accepts values of type t.
func Accepts(p Profiler, t ValueType) bool {
	for _, x := range p.Types() {
		if x == t {
			return true
		}
	}

	return false
}
