package services

import (
	"reflect"
	"strings"

	"github.com/soaringjerry/surveyguy/internal/models"
)

// SanitizeResponses returns a cleaned copy of responses: strings are
// trimmed and blank ones become nil, lists lose nil and "" entries and
// collapse to nil when nothing is left. List elements are kept as sent.
// Other values pass through.
func SanitizeResponses(responses models.ResponseSet) models.ResponseSet {
	out := make(models.ResponseSet, len(responses))
	for id, v := range responses {
		out[id] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return s
		}
		return nil
	case []byte:
		return v
	case []string:
		kept := make([]string, 0, len(x))
		for _, s := range x {
			if s != "" {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return kept
	case []any:
		kept := make([]any, 0, len(x))
		for _, el := range x {
			if !droppedElement(el) {
				kept = append(kept, el)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return kept
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	kept := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		el := rv.Index(i)
		if !droppedElement(el.Interface()) {
			kept = reflect.Append(kept, el)
		}
	}
	if kept.Len() == 0 {
		return nil
	}
	return kept.Interface()
}

func droppedElement(el any) bool {
	if el == nil {
		return true
	}
	s, ok := el.(string)
	return ok && s == ""
}
