package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field maps one value of a decoded JSON object onto a record of type T.
//
// The source is the object key derived from Name (snake_case -> camelCase) unless
// overridden with From or Derived. Required fields fail the decode when missing;
// optional fields are skipped when missing or empty.
type Field[T any] struct {
	Name     string
	key      string
	derive   func(data map[string]any) (any, bool)
	apply    func(rec *T, raw any) error
	optional bool
}

// From overrides the source key.
func (f Field[T]) From(key string) Field[T] {
	f.key = key
	return f
}

// Derived reads the raw value through fn instead of a single key.
func (f Field[T]) Derived(fn func(data map[string]any) (any, bool)) Field[T] {
	f.derive = fn
	return f
}

func (f Field[T]) Optional() Field[T] {
	f.optional = true
	return f
}

func (f Field[T]) sourceKey() string {
	if f.key != "" {
		return f.key
	}
	return camelKey(f.Name)
}

func (f Field[T]) raw(data map[string]any) (any, bool) {
	if f.derive != nil {
		return f.derive(data)
	}
	v, ok := data[f.sourceKey()]
	return v, ok
}

// Schema is an ordered list of fields producing a T.
type Schema[T any] []Field[T]

func (s Schema[T]) Decode(data map[string]any) (T, error) {
	var rec T
	for _, f := range s {
		raw, ok := f.raw(data)
		if !ok || isEmpty(raw) {
			if f.optional {
				continue
			}
			if !ok || raw == nil {
				return rec, fmt.Errorf("missing field %s (%s)", f.Name, f.sourceKey())
			}
		}
		if err := f.apply(&rec, raw); err != nil {
			return rec, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return rec, nil
}

// DecodeJSON decodes b as an object and maps it through the schema.
func (s Schema[T]) DecodeJSON(b []byte) (T, error) {
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		var zero T
		return zero, fmt.Errorf("decode object: %w", err)
	}
	return s.Decode(data)
}

// List decodes collections of T. Payloads are either a bare array or an object of the
// form {"results": [...], "metadata": {...}}.
type List[T any] struct {
	of Schema[T]
}

// ListOf panics when elem is empty: a list without an element schema is a programming error.
func ListOf[T any](elem Schema[T]) List[T] {
	if len(elem) == 0 {
		panic("model: list declared without an element schema")
	}
	return List[T]{of: elem}
}

func (l List[T]) Decode(raw any) ([]T, *Metadata, error) {
	var (
		items []any
		meta  *Metadata
	)
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		res, ok := v["results"].([]any)
		if !ok && v["results"] != nil {
			return nil, nil, fmt.Errorf("results: expected array, got %T", v["results"])
		}
		items = res
		if md, ok := v["metadata"].(map[string]any); ok {
			m, err := MetadataSchema.Decode(md)
			if err != nil {
				return nil, nil, fmt.Errorf("metadata: %w", err)
			}
			meta = &m
		}
	case nil:
	default:
		return nil, nil, fmt.Errorf("expected array or object, got %T", raw)
	}

	out := make([]T, 0, len(items))
	for i, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("results[%d]: expected object, got %T", i, it)
		}
		rec, err := l.of.Decode(obj)
		if err != nil {
			return nil, nil, fmt.Errorf("results[%d]: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, meta, nil
}

func (l List[T]) DecodeJSON(b []byte) ([]T, *Metadata, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode list: %w", err)
	}
	return l.Decode(raw)
}

// Field constructors. Each pairs a conversion with a setter on the record.

func String[T any](name string, set func(*T, string)) Field[T] {
	return Field[T]{Name: name, apply: func(rec *T, raw any) error {
		s, err := toString(raw)
		if err != nil {
			return err
		}
		set(rec, s)
		return nil
	}}
}

func Int[T any](name string, set func(*T, int)) Field[T] {
	return Field[T]{Name: name, apply: func(rec *T, raw any) error {
		n, err := toInt(raw)
		if err != nil {
			return err
		}
		set(rec, n)
		return nil
	}}
}

// Seconds converts a number of seconds into a time.Duration.
func Seconds[T any](name string, set func(*T, time.Duration)) Field[T] {
	return Field[T]{Name: name, apply: func(rec *T, raw any) error {
		n, err := toInt(raw)
		if err != nil {
			return err
		}
		set(rec, time.Duration(n)*time.Second)
		return nil
	}}
}

func DateTime[T any](name string, set func(*T, time.Time)) Field[T] {
	return Field[T]{Name: name, apply: func(rec *T, raw any) error {
		s, err := toString(raw)
		if err != nil {
			return err
		}
		t, err := time.Parse(DateTimeFormat, s)
		if err != nil {
			return err
		}
		set(rec, t)
		return nil
	}}
}

func Day[T any](name string, set func(*T, Date)) Field[T] {
	return Field[T]{Name: name, apply: func(rec *T, raw any) error {
		s, err := toString(raw)
		if err != nil {
			return err
		}
		d, err := ParseDate(s)
		if err != nil {
			return err
		}
		set(rec, d)
		return nil
	}}
}

// Nested decodes an embedded object through its own schema.
func Nested[T, U any](name string, of Schema[U], set func(*T, U)) Field[T] {
	return Field[T]{Name: name, apply: func(rec *T, raw any) error {
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", raw)
		}
		v, err := of.Decode(obj)
		if err != nil {
			return err
		}
		set(rec, v)
		return nil
	}}
}

// Raw hands the undecoded value to set.
func Raw[T any](name string, set func(*T, any) error) Field[T] {
	return Field[T]{Name: name, apply: set}
}

func camelKey(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", raw)
	}
}

func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}
