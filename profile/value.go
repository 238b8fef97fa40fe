package profile

import (
	"encoding/json"
	"math"
	"strconv"
)

// Value is a single observation of a column. Type selects which of the
// other fields holds the data; NullType marks an absent value.
type Value struct {
	Type  ValueType
	Int   int64
	Float float64
	Str   string
}

func Int(i int64) Value {
	return Value{Type: IntType, Int: i}
}

func Float(f float64) Value {
	return Value{Type: FloatType, Float: f}
}

func String(s string) Value {
	return Value{Type: StringType, Str: s}
}

func Null() Value {
	return Value{Type: NullType}
}

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool {
	return v.Type == NullType || v.Type == UnknownType
}

// Float64 coerces integer and float values to a float64. The second return
// value is false for every other type, including absent values.
func (v Value) Float64() (float64, bool) {
	switch v.Type {
	case IntType:
		return float64(v.Int), true
	case FloatType:
		return v.Float, true
	}

	return 0, false
}

func (v Value) String() string {
	switch v.Type {
	case IntType:
		return strconv.FormatInt(v.Int, 10)
	case FloatType:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case StringType:
		return v.Str
	}

	return ""
}

// MarshalJSON encodes the value as a JSON scalar. Absent values and
// non-finite floats are encoded as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case IntType:
		return json.Marshal(v.Int)
	case FloatType:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Float)
	case StringType:
		return json.Marshal(v.Str)
	}

	return []byte("null"), nil
}
