package localdb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Operation is the kind of query a QuerySpec describes.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpsert Operation = "upsert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Condition is an equality filter.
type Condition struct {
	Field string
	Value any
}

// Ordering is one sort key.
type Ordering struct {
	Field     string
	Ascending bool
}

// QuerySpec is the complete description of a query. The builder produces it
// and a single evaluator interprets it.
type QuerySpec struct {
	Table     string
	Operation Operation
	// Columns is the projection; empty or "*" returns whole rows.
	Columns []string
	// Join names the parent table requested with "<table>!inner(*)".
	Join       string
	Filters    []Condition
	Orders     []Ordering
	Limit      int
	Single     bool
	Rows       []any
	Patch      any
	OnConflict []string
}

var joinToken = regexp.MustCompile(`^(\w+)!inner\(\*\)$`)

// Query is a chainable builder over one table. Each method records into the
// spec; nothing is evaluated until Execute.
type Query struct {
	db   *DB
	spec QuerySpec
	err  error
}

// From starts a query on table.
func (db *DB) From(table string) *Query {
	return &Query{db: db, spec: QuerySpec{Table: table}}
}

func (q *Query) setOperation(op Operation) {
	if q.spec.Operation != "" && q.spec.Operation != op {
		q.fail(fmt.Errorf("%w: %s already set, cannot %s", ErrInvalidQuery, q.spec.Operation, op))
		return
	}
	q.spec.Operation = op
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Select sets the projection. Columns are comma separated; "*" selects every
// column and "<table>!inner(*)" embeds the related parent row. After Insert,
// Upsert, Update or Delete it only shapes the returned rows.
func (q *Query) Select(columns string) *Query {
	if q.spec.Operation == "" {
		q.spec.Operation = OpSelect
	}
	q.spec.Columns = nil
	q.spec.Join = ""
	for _, c := range strings.Split(columns, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if m := joinToken.FindStringSubmatch(c); m != nil {
			if q.spec.Join != "" && q.spec.Join != m[1] {
				q.fail(fmt.Errorf("%w: only one join is supported", ErrInvalidQuery))
				continue
			}
			q.spec.Join = m[1]
			continue
		}
		q.spec.Columns = append(q.spec.Columns, c)
	}
	return q
}

// Insert appends rows. Rows are maps or JSON-tagged structs.
func (q *Query) Insert(rows ...any) *Query {
	q.setOperation(OpInsert)
	q.spec.Rows = append(q.spec.Rows, rows...)
	return q
}

// Upsert inserts rows or merges them into rows with the same conflict
// columns. The conflict columns default to id.
func (q *Query) Upsert(rows ...any) *Query {
	q.setOperation(OpUpsert)
	q.spec.Rows = append(q.spec.Rows, rows...)
	return q
}

// OnConflict sets the columns that identify an existing row for Upsert.
// "task_id,user_id" and ("task_id", "user_id") are equivalent.
func (q *Query) OnConflict(columns ...string) *Query {
	q.spec.OnConflict = nil
	for _, c := range columns {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				q.spec.OnConflict = append(q.spec.OnConflict, part)
			}
		}
	}
	return q
}

// Update shallow-merges patch into the first row matching the filters.
func (q *Query) Update(patch any) *Query {
	q.setOperation(OpUpdate)
	q.spec.Patch = patch
	return q
}

// Delete removes the first row matching the filters.
func (q *Query) Delete() *Query {
	q.setOperation(OpDelete)
	return q
}

// Eq adds an equality filter. Filters combine with AND.
func (q *Query) Eq(field string, value any) *Query {
	v, err := toValue(value)
	if err != nil {
		q.fail(err)
		return q
	}
	q.spec.Filters = append(q.spec.Filters, Condition{Field: field, Value: v})
	return q
}

// Order adds a sort key. Earlier keys take precedence.
func (q *Query) Order(field string, ascending bool) *Query {
	q.spec.Orders = append(q.spec.Orders, Ordering{Field: field, Ascending: ascending})
	return q
}

// Limit caps the number of returned rows. Zero means no limit.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		q.fail(fmt.Errorf("%w: negative limit", ErrInvalidQuery))
		return q
	}
	q.spec.Limit = n
	return q
}

// Single makes the query resolve to the first row, or nil data.
func (q *Query) Single() *Query {
	q.spec.Single = true
	return q
}

// Spec returns the specification built so far.
func (q *Query) Spec() QuerySpec {
	return q.spec
}

// Execute evaluates the query. A context cancelled before evaluation yields
// its error; once evaluation starts it runs to completion.
func (q *Query) Execute(ctx context.Context) Response {
	if q.err != nil {
		return Response{Error: q.err}
	}
	return q.db.Run(ctx, q.spec)
}
