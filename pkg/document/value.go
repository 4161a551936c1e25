// Package document defines the document model shared by the batch fetch layer
// and the store adapters: a JSON-like Value union, field maps, raw documents as
// returned by a store, and normalized records keyed by their true identifier.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is the zero Kind; a zero Value is null.
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a dynamically typed document field.
// Numbers are kept in their textual json.Number form so that
// integers larger than 2^53 survive a round trip.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  Fields
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value from its JSON text.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int returns a numeric Value.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Float returns a numeric Value.
func Float(f float64) Value {
	return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// Array returns an array Value.
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Object returns an object Value.
func Object(fields Fields) Value { return Value{kind: KindObject, obj: fields} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string and whether v holds one.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the number text and whether v holds one.
func (v Value) AsNumber() (json.Number, bool) { return v.num, v.kind == KindNumber }

// AsFloat returns the number as float64; ok is false for non-numbers
// and for number text that does not parse.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	return f, err == nil
}

// AsArray returns the elements and whether v holds an array.
func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsObject returns the nested fields and whether v holds an object.
func (v Value) AsObject() (Fields, bool) { return v.obj, v.kind == KindObject }

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		if v.arr == nil {
			return v
		}
		arr := make([]Value, len(v.arr))
		for i, item := range v.arr {
			arr[i] = item.Clone()
		}
		return Value{kind: KindArray, arr: arr}
	case KindObject:
		return Value{kind: KindObject, obj: v.obj.Clone()}
	default:
		return v
	}
}

// Equal reports whether v and o hold the same data.
// Numbers compare by their text.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// Any converts v into the plain Go representation used by encoding/json:
// nil, bool, json.Number, string, []any or map[string]any.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}
		return out
	case KindObject:
		return v.obj.Any()
	default:
		return nil
	}
}

// FromAny converts a decoded JSON or YAML tree into a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Number(json.Number(strconv.FormatUint(t, 10))), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case []any:
		arr := make([]Value, len(t))
		for i, item := range t {
			val, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			arr[i] = val
		}
		return Array(arr...), nil
	case map[string]any:
		fields, err := FieldsFromAny(t)
		if err != nil {
			return Value{}, err
		}
		return Object(fields), nil
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, item := range t {
			m[fmt.Sprint(k)] = item
		}
		return FromAny(m)
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", x)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		if v.num == "" {
			return []byte("0"), nil
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return nil, fmt.Errorf("marshal value: unknown kind %s", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// String renders v as compact JSON, mainly for logs and test failures.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(data)
}

// sortedKeys returns the keys of f in lexical order.
func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
