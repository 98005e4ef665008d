// Package value implements the tagged runtime value of the 3AC engine.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindAbsent Kind = iota // lookup of an unset variable
	KindInt
	KindFloat
	KindBool
	KindString
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindPointer:
		return "pointer"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value represents a dynamically-typed value in the engine. The zero Value is absent.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	Bool bool
	Str  string
	Ptr  Pointer
}

// Absent returns the value of a variable that was never set.
func Absent() Value {
	return Value{}
}

// NewInt creates a new integer Value.
func NewInt(i int64) Value {
	return Value{Kind: KindInt, I64: i}
}

// NewFloat creates a new float Value.
func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, F64: f}
}

// NewBool creates a new boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NewString creates a new string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewPointer wraps an address as a Value.
func NewPointer(p Pointer) Value {
	return Value{Kind: KindPointer, Ptr: p}
}

func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// IsNumeric reports whether v takes part in arithmetic. Booleans count as 0 and 1.
func (v Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindBool
}

// AsInt64 converts an int or bool to int64.
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case KindInt:
		return v.I64, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat64 converts any numeric value to float64.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F64, true
	case KindInt, KindBool:
		i, _ := v.AsInt64()
		return float64(i), true
	default:
		return 0, false
	}
}

// Truthy reports the truthiness used by conditional jumps and OR/AND.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindInt:
		return v.I64 != 0
	case KindFloat:
		return v.F64 != 0
	case KindBool:
		return v.Bool
	case KindString:
		return v.Str != ""
	case KindPointer:
		return true
	default:
		return false
	}
}

// HeapAddress returns the heap index named by v. Heap pointers and bare
// integers both address the heap.
func (v Value) HeapAddress() (int, bool) {
	switch v.Kind {
	case KindPointer:
		if v.Ptr.Kind == PtrHeap {
			return v.Ptr.Index, true
		}
	case KindInt:
		return int(v.I64), true
	}
	return 0, false
}

// Equal compares numerics by value across int, float and bool and everything
// else by kind and payload.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.Kind != KindFloat && o.Kind != KindFloat {
			a, _ := v.AsInt64()
			b, _ := o.AsInt64()
			return a == b
		}
		a, _ := v.AsFloat64()
		b, _ := o.AsFloat64()
		return a == b
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindPointer:
		return v.Ptr == o.Ptr
	default:
		return true
	}
}

// String renders the value the way PRINT and CONCAT show it.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return formatFloat(v.F64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindPointer:
		return v.Ptr.String()
	default:
		return "none"
	}
}

// Repr renders the value for memory dumps and watches; strings are quoted.
func (v Value) Repr() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
