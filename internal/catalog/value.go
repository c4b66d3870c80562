package catalog

import (
	"fmt"
	"strconv"
)

// Kind discriminates the typed values conditions and profiles carry.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Value is a typed scalar. The zero value is the empty string.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }

func (v Value) Kind() Kind { return v.kind }

// Numeric reports whether the value participates in ordered comparison.
func (v Value) Numeric() bool { return v.kind == KindInt || v.kind == KindFloat }

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

func (v Value) asFloat() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// Equal compares two values. Ints and floats compare numerically; any other
// cross-kind comparison is false.
func (v Value) Equal(other Value) bool {
	if v.Numeric() && other.Numeric() {
		return v.asFloat() == other.asFloat()
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == other.s
	case KindBool:
		return v.b == other.b
	}
	return false
}

// Compare orders two numeric values: -1, 0, or +1. The second return is false
// when either value is non-numeric; the snapshot validator guarantees that
// never happens for published conditions.
func (v Value) Compare(other Value) (int, bool) {
	if !v.Numeric() || !other.Numeric() {
		return 0, false
	}
	a, b := v.asFloat(), other.asFloat()
	switch {
	case a < b:
		return -1, true
	case a > b:
		return 1, true
	}
	return 0, true
}

// valueFromAny converts a YAML/JSON scalar into a typed Value.
func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return StringValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case float64:
		return FloatValue(t), nil
	case bool:
		return BoolValue(t), nil
	case nil:
		return Value{}, fmt.Errorf("value is missing")
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}
