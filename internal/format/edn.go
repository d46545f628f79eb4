package format

import (
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// WriteEDN writes v as EDN.
//
// Structs become maps keyed by their json tag names as kebab-case keywords
// (timeSpentSeconds -> :time-spent-seconds), honoring "-" and omitempty. Timestamps
// are written as #inst, durations as a number of hours and text marshalers (such as
// calendar dates) as strings. Other types with a custom JSON form go through it.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	enc := ednEncoder{pretty: pretty}
	s, err := enc.encode(reflect.ValueOf(v), 0)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s+"\n")
	return err
}

type ednEncoder struct {
	pretty bool
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

func (e ednEncoder) encode(v reflect.Value, level int) (string, error) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return "nil", nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "nil", nil
	}

	switch v.Type() {
	case timeType:
		return "#inst " + strconv.Quote(v.Interface().(time.Time).UTC().Format(time.RFC3339)), nil
	case durationType:
		return formatNumber(time.Duration(v.Int()).Hours()), nil
	}
	if v.CanInterface() {
		switch m := v.Interface().(type) {
		case encoding.TextMarshaler:
			b, err := m.MarshalText()
			if err != nil {
				return "", err
			}
			return strconv.Quote(string(b)), nil
		case json.Marshaler:
			return e.viaJSON(m, level)
		}
	}

	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return formatNumber(v.Float()), nil
	case reflect.String:
		return strconv.Quote(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return "nil", nil
		}
		items := make([]string, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			s, err := e.encode(v.Index(i), level+1)
			if err != nil {
				return "", err
			}
			items = append(items, s)
		}
		return e.collection("[", "]", items, level), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("edn: unsupported map key type %s", v.Type().Key())
		}
		var entries []ednEntry
		iter := v.MapRange()
		for iter.Next() {
			s, err := e.encode(iter.Value(), level+1)
			if err != nil {
				return "", err
			}
			entries = append(entries, ednEntry{key: ednKeyword(iter.Key().String()), value: s})
		}
		return e.mapOf(entries, level), nil
	case reflect.Struct:
		entries, err := e.fields(v, level)
		if err != nil {
			return "", err
		}
		return e.mapOf(entries, level), nil
	}
	return "", fmt.Errorf("edn: unsupported type %s", v.Type())
}

type ednEntry struct {
	key   string
	value string
}

// fields lists a struct's exported fields the way encoding/json would name them.
// Untagged exported embedded structs are flattened into the parent.
func (e ednEncoder) fields(v reflect.Value, level int) ([]ednEntry, error) {
	var out []ednEntry
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)

		if f.Anonymous && name == "" && fv.Kind() == reflect.Struct {
			nested, err := e.fields(fv, level)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		s, err := e.encode(fv, level+1)
		if err != nil {
			return nil, err
		}
		out = append(out, ednEntry{key: ednKeyword(name), value: s})
	}
	return out, nil
}

// viaJSON encodes a value through its own JSON form.
func (e ednEncoder) viaJSON(m json.Marshaler, level int) (string, error) {
	b, err := m.MarshalJSON()
	if err != nil {
		return "", err
	}
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return "", err
	}
	return e.encode(reflect.ValueOf(x), level)
}

func (e ednEncoder) mapOf(entries []ednEntry, level int) string {
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	items := make([]string, len(entries))
	for i, en := range entries {
		items[i] = ":" + en.key + " " + en.value
	}
	return e.collection("{", "}", items, level)
}

func (e ednEncoder) collection(open, close string, items []string, level int) string {
	if len(items) == 0 {
		return open + close
	}
	if !e.pretty {
		return open + strings.Join(items, " ") + close
	}
	inner := strings.Repeat("  ", level+1)
	return open + "\n" + inner + strings.Join(items, "\n"+inner) + "\n" + strings.Repeat("  ", level) + close
}

// formatNumber prints whole numbers without a fraction.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func ednKeyword(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '_':
			b.WriteByte('-')
			prevLower = false
			continue
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
			continue
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}
