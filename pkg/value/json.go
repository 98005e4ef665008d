package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalJSON encodes absent as null, pointers as ["kind", location] and
// floats with a decimal point or exponent so they decode back as floats.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindAbsent:
		return []byte("null"), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.I64, 10)), nil
	case KindFloat:
		if math.IsInf(v.F64, 0) || math.IsNaN(v.F64) {
			return nil, fmt.Errorf("value: cannot encode %s as JSON", formatFloat(v.F64))
		}
		return []byte(formatFloat(v.F64)), nil
	case KindBool:
		return json.Marshal(v.Bool)
	case KindString:
		return json.Marshal(v.Str)
	case KindPointer:
		if v.Ptr.Kind == PtrHeap {
			return json.Marshal([]any{v.Ptr.Kind.String(), v.Ptr.Index})
		}
		return json.Marshal([]any{v.Ptr.Kind.String(), v.Ptr.Name})
	default:
		return nil, fmt.Errorf("value: cannot encode kind %s", v.Kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	decoded, err := fromJSON(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func fromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Absent(), nil
	case bool:
		return NewBool(x), nil
	case string:
		return NewString(x), nil
	case json.Number:
		s := x.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := x.Float64()
			if err != nil {
				return Value{}, err
			}
			return NewFloat(f), nil
		}
		i, err := x.Int64()
		if err != nil {
			return Value{}, err
		}
		return NewInt(i), nil
	case []any:
		return pointerFromJSON(x)
	default:
		return Value{}, fmt.Errorf("value: unsupported JSON %T", raw)
	}
}

func pointerFromJSON(pair []any) (Value, error) {
	if len(pair) != 2 {
		return Value{}, fmt.Errorf("value: pointer must be a [kind, location] pair, got %d elements", len(pair))
	}
	name, ok := pair[0].(string)
	if !ok {
		return Value{}, fmt.Errorf("value: pointer kind must be a string, got %T", pair[0])
	}
	kind, err := ParsePointerKind(name)
	if err != nil {
		return Value{}, err
	}

	if kind == PtrHeap {
		n, ok := pair[1].(json.Number)
		if !ok {
			return Value{}, fmt.Errorf("value: heap pointer location must be an integer, got %T", pair[1])
		}
		idx, err := n.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("value: heap pointer location: %w", err)
		}
		return NewPointer(HeapPointer(int(idx))), nil
	}

	loc, ok := pair[1].(string)
	if !ok {
		return Value{}, fmt.Errorf("value: %s pointer location must be a name, got %T", kind, pair[1])
	}
	return NewPointer(Pointer{Kind: kind, Name: loc}), nil
}
