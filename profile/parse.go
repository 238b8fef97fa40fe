package profile

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	dateFormats = []string{
		"2006-01-02",
		"01-02-2006",
		"01-02-06",
		"01/02/2006",
		"01/02/06",
		"1/2/06",
	}

	dateTimeFormats = []string{
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
		time.RFC3339Nano,
	}
)

func ParseBool(s string) (bool, bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return b, err == nil
}

// parseTime returns the time parsed by the first matching layout.
func parseTime(layouts []string, s string) (time.Time, bool) {
	s = strings.TrimSpace(s)

	for _, layout := range layouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v, true
		}
	}

	return time.Time{}, false
}

func ParseDate(s string) (time.Time, bool) {
	return parseTime(dateFormats, s)
}

func ParseDateTime(s string) (time.Time, bool) {
	return parseTime(dateTimeFormats, s)
}

// ParseFloat parses a decimal number. Infinities and NaN are rejected
// since they are not measurements.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func ParseInt(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// Coerce parses raw text into a value of the declared column type. Empty
// and unparsable text yields an absent value. Types without a value
// representation are offered as strings.
func Coerce(raw string, t ValueType) Value {
	if raw == "" {
		return Null()
	}

	switch t {
	case NullType, UnknownType:
		return Null()

	case IntType:
		if i, ok := ParseInt(raw); ok {
			return Int(i)
		}

	case FloatType:
		if f, ok := ParseFloat(raw); ok {
			return Float(f)
		}

	default:
		return String(raw)
	}

	return Null()
}

// Convert adapts an already typed value to the declared column type, such
// as an integer in a float column or a number in a string column.
func Convert(v Value, t ValueType) Value {
	if v.IsNull() || v.Type == t {
		return v
	}

	switch t {
	case FloatType:
		if f, ok := v.Float64(); ok {
			return Float(f)
		}

	case IntType:
		return Null()

	case StringType:
		return String(v.String())
	}

	return Null()
}
