package services

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Answer values arrive either from JSON decoding (float64, []any,
// map[string]any) or from Go callers and YAML fixtures (int, []string...).
// The helpers below read all of them without coercing truthiness.

func isBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// asList returns the elements of a sequence value.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// mapLen reports the number of keys of a mapping value.
func mapLen(v any) (int, bool) {
	switch m := v.(type) {
	case nil:
		return 0, false
	case map[string]any:
		return len(m), true
	case map[string]string:
		return len(m), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return 0, false
	}
	return rv.Len(), true
}

// asNumber reads a finite number from numeric values or numeric strings.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// asText renders scalar values as text; lists and maps have no text form.
func asText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	}
	if n, ok := asNumber(v); ok {
		return formatNumber(n), true
	}
	return "", false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Emptiness predicates used by the required check. Numeric zero and
// boolean false always count as answered.

func isEmptyScalar(v any) bool {
	return v == nil || isBlankString(v)
}

// isEmptyList reports whether v is not a list or holds nothing but nil and
// blank strings.
func isEmptyList(v any) bool {
	l, ok := asList(v)
	if !ok {
		return true
	}
	for _, el := range l {
		if el != nil && !isBlankString(el) {
			return false
		}
	}
	return true
}

func isEmptyMap(v any) bool {
	n, ok := mapLen(v)
	return !ok || n == 0
}

func isEmptyAny(v any) bool {
	if isEmptyScalar(v) {
		return true
	}
	if l, ok := asList(v); ok {
		return len(l) == 0
	}
	if n, ok := mapLen(v); ok {
		return n == 0
	}
	return false
}

// isAnswered is the coarse progress predicate: anything except nil, the
// empty string and an empty list counts.
func isAnswered(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	if l, ok := asList(v); ok && len(l) == 0 {
		return false
	}
	return true
}
