package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
)

// Filter is a parsed "column=op.value" expression.
type Filter struct {
	Column string
	Op     Operator
	Value  string
}

// ParseFilter parses a filter expression. An empty expression yields nil.
func ParseFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	column, rest, ok := strings.Cut(expr, "=")
	if !ok || column == "" {
		return nil, fmt.Errorf("filter %q: expected column=op.value", expr)
	}
	op, value, ok := strings.Cut(rest, ".")
	if !ok {
		return nil, fmt.Errorf("filter %q: expected op.value", expr)
	}
	switch Operator(op) {
	case OpEq, OpNeq:
	default:
		return nil, fmt.Errorf("filter %q: unsupported operator %q", expr, op)
	}
	return &Filter{Column: column, Op: Operator(op), Value: value}, nil
}

// String renders the filter back to its expression form.
func (f *Filter) String() string {
	return f.Column + "=" + string(f.Op) + "." + f.Value
}

// Match reports whether row satisfies the filter.
func (f *Filter) Match(row map[string]any) bool {
	v, ok := row[f.Column]
	eq := ok && formatValue(v) == f.Value
	if f.Op == OpNeq {
		return !eq
	}
	return eq
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
