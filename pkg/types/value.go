// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessella Contributors

// Package types holds the shared value objects exchanged across store
// boundaries. Value is a tagged union covering the JSON-like shapes that
// entity attributes, relation properties, and diff fields can take, so the
// rest of the codebase never passes around untyped "any" property maps.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union: string | int64 | float64 | bool | null |
// Map | []Value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	m    Map
	l    []Value
}

// Map is a string-keyed collection of Values. Iteration order of Go maps is
// random; callers that need determinism (diff output, YAML dumps) iterate
// over Keys().
type Map map[string]Value

// Keys returns the map's keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep equality with another map.
func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func Null() Value              { return Value{} }
func String(s string) Value    { return Value{kind: KindString, str: s} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func MapValue(m Map) Value     { return Value{kind: KindMap, m: m} }
func List(vals ...Value) Value { return Value{kind: KindList, l: vals} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string variant, or ok=false for other kinds.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the int variant; a float variant with an integral value also
// converts, which keeps JSON round-trips (where 3 and 3.0 are the same
// token) from changing the observable value.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == float64(int64(v.f)) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// AsFloat returns the numeric variant widened to float64.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool)    { return v.b, v.kind == KindBool }
func (v Value) AsMap() (Map, bool)      { return v.m, v.kind == KindMap }
func (v Value) AsList() ([]Value, bool) { return v.l, v.kind == KindList }

// Equal reports deep equality. Int and float variants compare numerically,
// matching the JSON data model where both serialize to a number.
func (v Value) Equal(other Value) bool {
	vf, vok := v.AsFloat()
	of, ook := other.AsFloat()
	if vok && ook {
		return vf == of
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindBool:
		return v.b == other.b
	case KindMap:
		return v.m.Equal(other.m)
	case KindList:
		if len(v.l) != len(other.l) {
			return false
		}
		for i := range v.l {
			if !v.l[i].Equal(other.l[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for logs and literal triple objects.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("<%s>", v.kind)
		}
		return string(raw)
	}
}

// Interface converts to the equivalent untyped representation
// (nil, string, int64, float64, bool, map[string]any, []any).
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, mv := range v.m {
			out[k] = mv.Interface()
		}
		return out
	case KindList:
		out := make([]any, len(v.l))
		for i, lv := range v.l {
			out[i] = lv.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts an untyped value (as produced by encoding/json or
// yaml.v3 decoding into any) into a Value.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("parsing number %q: %w", t.String(), err)
		}
		return Float(f), nil
	case map[string]any:
		m := make(Map, len(t))
		for k, mv := range t {
			v, err := FromAny(mv)
			if err != nil {
				return Null(), fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = v
		}
		return MapValue(m), nil
	case []any:
		l := make([]Value, len(t))
		for i, lv := range t {
			v, err := FromAny(lv)
			if err != nil {
				return Null(), fmt.Errorf("index %d: %w", i, err)
			}
			l[i] = v
		}
		return List(l...), nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", raw)
	}
}

// MarshalJSON encodes the native representation (no wrapper object).
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON value, preserving the int/float distinction
// via json.Number.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML encodes the native representation for the file-backed store.
func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

// UnmarshalYAML decodes any YAML scalar/map/sequence.
func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := fromYAMLAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// fromYAMLAny normalizes yaml.v3 decoding quirks (map[string]any is already
// produced for string-keyed maps; ints arrive as int).
func fromYAMLAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case map[any]any:
		m := make(Map, len(t))
		for k, mv := range t {
			ks, ok := k.(string)
			if !ok {
				return Null(), fmt.Errorf("non-string map key %v", k)
			}
			v, err := fromYAMLAny(mv)
			if err != nil {
				return Null(), err
			}
			m[ks] = v
		}
		return MapValue(m), nil
	case []any:
		l := make([]Value, len(t))
		for i, lv := range t {
			v, err := fromYAMLAny(lv)
			if err != nil {
				return Null(), err
			}
			l[i] = v
		}
		return List(l...), nil
	default:
		return FromAny(raw)
	}
}
