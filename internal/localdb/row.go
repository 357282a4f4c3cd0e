package localdb

import (
	"encoding/json"
	"fmt"
)

// Row is a JSON-shaped record. Numbers are float64 once stored.
type Row map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (r Row) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Clone returns a deep copy of r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Row:
		return Row(cloneValue(map[string]any(t)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// toRow converts a map or JSON-tagged struct into a Row with JSON value types.
func toRow(v any) (Row, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil row", ErrInvalidQuery)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode row: %v", ErrInvalidQuery, err)
	}
	var row Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("%w: row must be an object: %v", ErrInvalidQuery, err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: row must be an object", ErrInvalidQuery)
	}
	return row, nil
}

// toValue converts a filter operand to its JSON value type.
func toValue(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode value: %v", ErrInvalidQuery, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode value: %v", ErrInvalidQuery, err)
	}
	return out, nil
}
