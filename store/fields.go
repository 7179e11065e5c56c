package store

import (
	"fmt"
	"math"
	"time"
)

// Fields holds the field values of a document. Values are nil, bool,
// string, time.Time, numbers, []any or map[string]any.
type Fields map[string]any

// Document is a raw document as returned by a Driver.
type Document struct {
	Ref    DocumentRef
	Fields Fields
}

// FieldError reports a missing field or a field of an unexpected type.
type FieldError struct {
	Field string
	Want  string
	Got   any
}

func (e *FieldError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("field %q: missing, want %s", e.Field, e.Want)
	}
	return fmt.Sprintf("field %q: got %T, want %s", e.Field, e.Got, e.Want)
}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the string value of key.
func (f Fields) String(key string) (string, error) {
	s, ok := f[key].(string)
	if !ok {
		return "", &FieldError{Field: key, Want: "string", Got: f[key]}
	}
	return s, nil
}

// OptionalString returns the string value of key, or "" when key is absent
// or null.
func (f Fields) OptionalString(key string) (string, error) {
	if f[key] == nil {
		return "", nil
	}
	return f.String(key)
}

// Bool returns the boolean value of key.
func (f Fields) Bool(key string) (bool, error) {
	b, ok := f[key].(bool)
	if !ok {
		return false, &FieldError{Field: key, Want: "bool", Got: f[key]}
	}
	return b, nil
}

// Time returns the timestamp value of key. Drivers without a native
// timestamp type store RFC 3339 strings, which are accepted too.
func (f Fields) Time(key string) (time.Time, error) {
	switch v := f[key].(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, &FieldError{Field: key, Want: "timestamp", Got: v}
		}
		return t, nil
	}
	return time.Time{}, &FieldError{Field: key, Want: "timestamp", Got: f[key]}
}

// Int64 returns the integer value of key. Float values must be integral.
func (f Fields) Int64(key string) (int64, error) {
	v, ok := toFloat(f[key])
	if !ok || v != math.Trunc(v) {
		return 0, &FieldError{Field: key, Want: "integer", Got: f[key]}
	}
	if i, ok := f[key].(int64); ok {
		return i, nil
	}
	return int64(v), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
