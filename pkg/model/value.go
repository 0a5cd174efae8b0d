package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind enumerates the shapes a variable value can take.
type ValueKind uint8

const (
	KindString ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged variable value. The zero value is the empty string.
type Value struct {
	kind    ValueKind
	str     string
	boolean bool
	integer int64
	float   float64
	list    []Value
}

// String builds a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Int builds an integer value.
func Int(i int64) Value { return Value{kind: KindInt, integer: i} }

// Float builds a float value. Callers are expected to pass finite numbers;
// see FromAny for the checked conversion.
func Float(f float64) Value { return Value{kind: KindFloat, float: f} }

// List builds a list value from items.
func List(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// Strings builds a list of string values.
func Strings(items []string) Value {
	out := make([]Value, 0, len(items))
	for _, item := range items {
		out = append(out, String(item))
	}
	return Value{kind: KindList, list: out}
}

// Kind reports the value shape.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string payload when the value is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsBool returns the boolean payload when the value is a bool.
func (v Value) AsBool() (bool, bool) { return v.boolean, v.kind == KindBool }

// AsInt returns the integer payload when the value is an int.
func (v Value) AsInt() (int64, bool) { return v.integer, v.kind == KindInt }

// AsFloat returns the float payload when the value is a float.
func (v Value) AsFloat() (float64, bool) { return v.float, v.kind == KindFloat }

// AsList returns a copy of the list payload when the value is a list.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out, true
}

// Interface converts the value into the plain Go shape handed to the
// evaluator and to the TOML encoder.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.boolean
	case KindInt:
		return v.integer
	case KindFloat:
		return v.float
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Interface())
		}
		return out
	default:
		return v.str
	}
}

// String renders the value for display and for places that need text, such
// as prompt defaults.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindInt:
		return strconv.FormatInt(v.integer, 10)
	case KindFloat:
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, item := range v.list {
			parts = append(parts, item.String())
		}
		return strings.Join(parts, ",")
	default:
		return v.str
	}
}

// Equal reports deep equality, including the kind tag.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.boolean == other.boolean
	case KindInt:
		return v.integer == other.integer
	case KindFloat:
		return v.float == other.float
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	default:
		return v.str == other.str
	}
}

// FromAny converts decoded TOML (or other loosely typed) data into a Value.
// Non-finite floats are rejected since they cannot round-trip through the
// answers file.
func FromAny(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Value{}, fmt.Errorf("model: nil value is not supported")
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("model: integer %d overflows int64", v)
		}
		return Int(int64(v)), nil
	case float32:
		return checkedFloat(float64(v))
	case float64:
		return checkedFloat(v)
	case time.Time:
		return String(v.Format(time.RFC3339)), nil
	case fmt.Stringer:
		return String(v.String()), nil
	case []string:
		return Strings(v), nil
	case []any:
		items := make([]Value, 0, len(v))
		for i, item := range v {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("model: list item %d: %w", i, err)
			}
			items = append(items, converted)
		}
		return Value{kind: KindList, list: items}, nil
	default:
		return Value{}, fmt.Errorf("model: unsupported value type %T", raw)
	}
}

func checkedFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("model: non-finite float %v", f)
	}
	return Float(f), nil
}
