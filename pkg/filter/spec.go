// Package filter holds the ordered field/value criteria that clients send to
// search endpoints.
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Criterion is a single field/value pair taken from a request.
type Criterion struct {
	Key   string
	Value any
}

// Spec is an ordered list of criteria. Order follows the request body (or
// query string), and it decides the order of positional parameters in the
// generated SQL.
type Spec []Criterion

// ErrNotObject is returned when a search body is not a JSON object.
var ErrNotObject = errors.New("filter: body must be a JSON object")

// UnmarshalJSON decodes a JSON object while keeping key order.
// Numbers are kept as json.Number so that large amounts are not rounded.
func (s *Spec) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	out := make(Spec, 0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return ErrNotObject
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("filter: value of %q: %w", key, err)
		}
		out = out.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	*s = out
	return nil
}

// MarshalJSON encodes the spec as a JSON object in its own order.
func (s Spec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromQuery builds a spec from a raw URL query string, preserving parameter
// order. A repeated key keeps its first position and its last value.
func FromQuery(rawQuery string) (Spec, error) {
	out := make(Spec, 0)
	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, fmt.Errorf("filter: query key %q: %w", key, err)
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("filter: query value of %q: %w", k, err)
		}
		out = out.Set(k, v)
	}
	return out, nil
}

// Get returns the value stored for key.
func (s Spec) Get(key string) (any, bool) {
	for _, c := range s {
		if c.Key == key {
			return c.Value, true
		}
	}
	return nil, false
}

// String returns the value for key rendered as a string, or "" when absent.
func (s Spec) String(key string) string {
	v, ok := s.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Set replaces the value of an existing key in place or appends a new one.
func (s Spec) Set(key string, value any) Spec {
	for i := range s {
		if s[i].Key == key {
			s[i].Value = value
			return s
		}
	}
	return append(s, Criterion{Key: key, Value: value})
}

// Without returns a copy of the spec with the given keys removed.
func (s Spec) Without(keys ...string) Spec {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	out := make(Spec, 0, len(s))
	for _, c := range s {
		if _, ok := drop[c.Key]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Active returns the criteria whose values are not empty.
func (s Spec) Active() Spec {
	out := make(Spec, 0, len(s))
	for _, c := range s {
		if !IsEmpty(c.Value) {
			out = append(out, c)
		}
	}
	return out
}

// IsEmpty reports whether a value means "no condition": nil, an empty or
// blank string, or an empty list.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
