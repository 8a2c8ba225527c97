package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the shape held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindMapping
	KindList
	KindScalar // number or bool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindMapping:
		return "mapping"
	case KindList:
		return "list"
	case KindScalar:
		return "scalar"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one loosely-typed JSON value produced by the LLM.
// The zero Value is null.
type Value struct {
	kind    Kind
	str     string
	mapping map[string]Value
	list    []Value
	num     float64
	isBool  bool
	boolean bool
}

func Null() Value            { return Value{} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(f float64) Value { return Value{kind: KindScalar, num: f} }
func Bool(b bool) Value      { return Value{kind: KindScalar, isBool: true, boolean: b} }

func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

func Mapping(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMapping, mapping: m}
}

// FromAny converts a decoded encoding/json tree into a Value.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, x := range t {
			m[k] = FromAny(x)
		}
		return Mapping(m)
	case map[string]Value:
		return Mapping(t)
	case []any:
		l := make([]Value, len(t))
		for i, x := range t {
			l[i] = FromAny(x)
		}
		return List(l)
	case []string:
		l := make([]Value, len(t))
		for i, x := range t {
			l[i] = String(x)
		}
		return List(l)
	default:
		return String(fmt.Sprint(t))
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Map() (map[string]Value, bool) {
	return v.mapping, v.kind == KindMapping
}

func (v Value) Items() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// Get returns the member under key, or null when v is not a mapping or lacks it.
func (v Value) Get(key string) Value {
	if v.kind != KindMapping {
		return Null()
	}
	return v.mapping[key]
}

// Truthy follows JSON-ish truthiness: empty strings and collections, zero and false are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindMapping:
		return len(v.mapping) > 0
	case KindList:
		return len(v.list) > 0
	case KindScalar:
		if v.isBool {
			return v.boolean
		}
		return v.num != 0
	}
	return false
}

// IsEmpty reports null, "", [] or {}. Zero and false are not empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindMapping:
		return len(v.mapping) == 0
	case KindList:
		return len(v.list) == 0
	}
	return false
}

// Float coerces numbers, bools and numeric strings. NaN never parses.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.kind {
	case KindScalar:
		if v.isBool {
			if v.boolean {
				return 1, true
			}
			return 0, true
		}
		f = v.num
	case KindString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Any converts back to the plain encoding/json representation.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindScalar:
		if v.isBool {
			return v.boolean
		}
		return v.num
	case KindMapping:
		m := make(map[string]any, len(v.mapping))
		for k, x := range v.mapping {
			m[k] = x.Any()
		}
		return m
	case KindList:
		l := make([]any, len(v.list))
		for i, x := range v.list {
			l[i] = x.Any()
		}
		return l
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindScalar:
		if v.isBool {
			return json.Marshal(v.boolean)
		}
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindList:
		return json.Marshal(v.list)
	case KindMapping:
		keys := make([]string, 0, len(v.mapping))
		for k := range v.mapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := v.mapping[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("marshal value: unknown kind %s", v.kind)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Fields is one raw extraction document keyed by top-level JSON key.
type Fields map[string]Value

// FieldsFromAny accepts only a decoded JSON object.
func FieldsFromAny(v any) (Fields, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(Fields, len(m))
	for k, x := range m {
		out[k] = FromAny(x)
	}
	return out, true
}

// Any converts the document back to a plain JSON object.
func (f Fields) Any() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v.Any()
	}
	return out
}

// Clone copies the top level only.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
