package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// LongRow is one answer in the long (tidy) export.
type LongRow struct {
	ResponseID  string
	SessionID   string
	QuestionID  string
	Value       string
	SubmittedAt string
}

// ExportLongCSV renders rows into a long-format CSV.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "session_id", "question_id", "value", "submitted_at"})
	for _, r := range rows {
		if err := w.Write([]string{r.ResponseID, r.SessionID, r.QuestionID, r.Value, r.SubmittedAt}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// WideTable is a response-per-row export: Header names the leading fixed
// columns followed by one column per question.
type WideTable struct {
	Header []string
	Rows   [][]string
}

// ExportWideCSV renders a wide-format CSV.
func ExportWideCSV(t WideTable) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if len(row) != len(t.Header) {
			return nil, fmt.Errorf("wide row has %d cells, header has %d", len(row), len(t.Header))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// cellValue flattens an answer into a single CSV cell. Lists are joined
// with "; " and matrix answers are written as "row=column" pairs.
func cellValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := asText(v); ok {
		return s
	}
	if list, ok := asList(v); ok {
		parts := make([]string, 0, len(list))
		for _, el := range list {
			parts = append(parts, cellValue(el))
		}
		return strings.Join(parts, "; ")
	}
	if m, ok := v.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+cellValue(m[k]))
		}
		return strings.Join(parts, "; ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
