package profile

import (
	"encoding/json"
	"strings"
)

const (
	UnknownType ValueType = iota
	NullType
	StringType
	BinaryType
	IntType
	FloatType
	BoolType
	DateType
	DateTimeType
	ObjectType
)

// ValueType is a type of value.
type ValueType uint8

func (v ValueType) String() string {
	switch v {
	case NullType:
		return "null"
	case StringType:
		return "string"
	case BinaryType:
		return "binary"
	case IntType:
		return "integer"
	case FloatType:
		return "float"
	case BoolType:
		return "boolean"
	case DateType:
		return "date"
	case DateTimeType:
		return "datetime"
	case ObjectType:
		return "object"
	}

	return ""
}

func (v ValueType) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *ValueType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	*v = ParseValueType(s)

	return nil
}

// ParseValueType returns the type named by s, or UnknownType.
func ParseValueType(s string) ValueType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string":
		return StringType
	case "null":
		return NullType
	case "binary":
		return BinaryType
	case "integer", "int", "long":
		return IntType
	case "float", "double":
		return FloatType
	case "boolean", "bool":
		return BoolType
	case "date":
		return DateType
	case "datetime", "timestamp":
		return DateTimeType
	case "object":
		return ObjectType
	}

	return UnknownType
}

// Pairs of types that generalize to something narrower than a string.
// Keys are ordered by ascending type.
var generalizations = map[[2]ValueType]ValueType{
	{IntType, BoolType}:      IntType,
	{IntType, FloatType}:     FloatType,
	{FloatType, BoolType}:    FloatType,
	{DateType, DateTimeType}: DateTimeType,
}

// GeneralizeType returns the narrowest type that can represent values of
// both types. Null generalizes to the other type and anything without a
// narrower common type generalizes to string.
func GeneralizeType(t1, t2 ValueType) ValueType {
	switch {
	case t1 == t2, t2 == NullType:
		return t1
	case t1 == NullType:
		return t2
	}

	if t1 > t2 {
		t1, t2 = t2, t1
	}

	if t, ok := generalizations[[2]ValueType{t1, t2}]; ok {
		return t
	}

	return StringType
}
