// Package normalize reduces loosely-typed upstream fields to plain Go values.
package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindObject
)

// NameField is a value that upstream sends either as a plain string or as an
// object carrying a name-like key.
type NameField struct {
	kind Kind
	str  string
	obj  map[string]json.RawMessage
}

// nameKeys are tried in order when the field arrives as an object.
var nameKeys = []string{"name", "station", "city"}

func StringName(s string) NameField {
	return NameField{kind: KindString, str: s}
}

func (f *NameField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = NameField{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.kind, f.str = KindString, s
	case '{':
		var m map[string]json.RawMessage
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		f.kind, f.obj = KindObject, m
	default:
		f.kind, f.str = KindString, string(b)
	}
	return nil
}

func (f NameField) Kind() Kind {
	return f.kind
}

// Resolve returns the field as a plain string, empty when nothing usable is present.
func (f NameField) Resolve() string {
	switch f.kind {
	case KindString:
		return f.str
	case KindObject:
		for _, key := range nameKeys {
			var nested NameField
			raw, ok := f.obj[key]
			if !ok || json.Unmarshal(raw, &nested) != nil {
				continue
			}
			if nested.kind == KindString && strings.TrimSpace(nested.str) != "" {
				return nested.str
			}
		}
	}
	return ""
}

// Lookup returns a string property of an object-shaped field.
func (f NameField) Lookup(key string) string {
	if f.kind != KindObject {
		return ""
	}
	var s string
	if raw, ok := f.obj[key]; ok && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

// Number is an optional numeric field. Values that are neither JSON numbers
// nor numeric strings decode as absent rather than failing.
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = Number{}
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*n = ParseNumber(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*n = ParseNumber(string(b))
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil for an absent number.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Int truncates toward zero.
func (n Number) Int() (int, bool) {
	if !n.Valid {
		return 0, false
	}
	return int(n.Value), true
}

// ParseNumber parses s leniently. Blank, non-numeric, NaN and infinite
// inputs are absent.
func ParseNumber(s string) Number {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}
