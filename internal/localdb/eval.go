package localdb

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/ganot/estimate-poker/internal/realtime"
)

// evaluate interprets spec against the tables. Callers hold db.mu. Returned
// changes are published by the caller after unlocking.
func (db *DB) evaluate(ctx context.Context, spec QuerySpec) (Response, []realtime.Change) {
	if !knownTable(spec.Table) {
		return Response{Error: fmt.Errorf("%w: %q", ErrUnknownTable, spec.Table)}, nil
	}

	switch spec.Operation {
	case "", OpSelect:
		return db.evalSelect(spec), nil
	case OpInsert:
		return db.evalInsert(ctx, spec)
	case OpUpsert:
		return db.evalUpsert(ctx, spec)
	case OpUpdate:
		return db.evalUpdate(ctx, spec)
	case OpDelete:
		return db.evalDelete(ctx, spec)
	default:
		return Response{Error: fmt.Errorf("%w: unknown operation %q", ErrInvalidQuery, spec.Operation)}, nil
	}
}

func matchesAll(row Row, filters []Condition) bool {
	for _, f := range filters {
		if !valuesEqual(row[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func firstMatch(rows []Row, filters []Condition) int {
	for i, r := range rows {
		if matchesAll(r, filters) {
			return i
		}
	}
	return -1
}

func (db *DB) evalSelect(spec QuerySpec) Response {
	var rel relation
	if spec.Join != "" {
		if len(spec.Filters) == 0 {
			return Response{Error: ErrJoinRequiresFilter}
		}
		var ok bool
		rel, ok = findRelation(spec.Table, spec.Join)
		if !ok {
			return Response{Error: fmt.Errorf("%w: %s to %s", ErrUnknownRelation, spec.Table, spec.Join)}
		}
	}

	var out []Row
	for _, r := range db.tables[spec.Table] {
		if !matchesAll(r, spec.Filters) {
			continue
		}
		row := r.Clone()
		if spec.Join != "" {
			parentIdx := firstMatch(db.tables[rel.parent], []Condition{{Field: ColumnID, Value: r[rel.foreignKey]}})
			if parentIdx < 0 {
				continue
			}
			row[spec.Join] = db.tables[rel.parent][parentIdx].Clone()
		}
		out = append(out, row)
	}

	db.sortRows(out, spec.Orders)
	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}
	out = project(out, spec.Columns, spec.Join)

	if spec.Single {
		if len(out) == 0 {
			return Response{}
		}
		return Response{Data: out[0]}
	}
	if out == nil {
		if spec.Join != "" {
			return Response{}
		}
		out = []Row{}
	}
	return Response{Data: out}
}

func (db *DB) sortRows(rows []Row, orders []Ordering) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			if c := compareForOrder(db.collator, rows[i][o.Field], rows[j][o.Field], o.Ascending); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// project keeps the named columns plus the joined row. An empty list or "*"
// keeps everything.
func project(rows []Row, columns []string, join string) []Row {
	if len(columns) == 0 || slices.Contains(columns, "*") {
		return rows
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		p := make(Row, len(columns)+1)
		for _, c := range columns {
			if v, ok := r[c]; ok {
				p[c] = v
			}
		}
		if join != "" {
			p[join] = r[join]
		}
		out[i] = p
	}
	return out
}

// prepareNew fills id, created_at and column defaults. Callers hold db.mu.
func (db *DB) prepareNew(table string, row Row) {
	if id, _ := row[ColumnID].(string); id == "" {
		row[ColumnID] = db.newID()
	}
	if ts, _ := row[ColumnCreatedAt].(string); ts == "" {
		row[ColumnCreatedAt] = db.nextTimestamp()
	} else {
		db.observeTimestamp(ts)
	}
	for k, v := range columnDefaults[table] {
		if _, ok := row[k]; !ok {
			row[k] = v
		}
	}
}

func containsID(rows []Row, id any) bool {
	return firstMatch(rows, []Condition{{Field: ColumnID, Value: id}}) >= 0
}

// commit swaps in next for table and persists, restoring the previous rows
// if the write fails.
func (db *DB) commit(ctx context.Context, table string, next []Row) error {
	prev := db.tables[table]
	db.tables[table] = next
	if err := db.persistLocked(ctx); err != nil {
		db.tables[table] = prev
		return err
	}
	return nil
}

func (db *DB) evalInsert(ctx context.Context, spec QuerySpec) (Response, []realtime.Change) {
	if len(spec.Rows) == 0 {
		return Response{Error: fmt.Errorf("%w: insert without rows", ErrInvalidQuery)}, nil
	}

	current := db.tables[spec.Table]
	next := slices.Clip(slices.Clone(current))
	inserted := make([]Row, 0, len(spec.Rows))
	for _, v := range spec.Rows {
		row, err := toRow(v)
		if err != nil {
			return Response{Error: err}, nil
		}
		db.prepareNew(spec.Table, row)
		if containsID(next, row[ColumnID]) {
			return Response{Error: fmt.Errorf("%w: %s %v", ErrDuplicateID, spec.Table, row[ColumnID])}, nil
		}
		next = append(next, row)
		inserted = append(inserted, row)
	}

	if err := db.commit(ctx, spec.Table, next); err != nil {
		return Response{Error: err}, nil
	}

	change := realtime.Change{Table: spec.Table, Event: realtime.EventInsert, New: inserted[0].Clone()}
	return mutationResponse(cloneRows(inserted), spec), []realtime.Change{change}
}

func (db *DB) evalUpsert(ctx context.Context, spec QuerySpec) (Response, []realtime.Change) {
	if len(spec.Rows) == 0 {
		return Response{Error: fmt.Errorf("%w: upsert without rows", ErrInvalidQuery)}, nil
	}
	conflict := spec.OnConflict
	if len(conflict) == 0 {
		conflict = []string{ColumnID}
	}

	next := slices.Clip(slices.Clone(db.tables[spec.Table]))
	result := make([]Row, 0, len(spec.Rows))
	var firstOld Row
	updated := false

	for _, v := range spec.Rows {
		row, err := toRow(v)
		if err != nil {
			return Response{Error: err}, nil
		}

		idx := -1
		if keys, ok := conflictKeys(row, conflict); ok {
			idx = firstMatch(next, keys)
		}
		if idx < 0 {
			db.prepareNew(spec.Table, row)
			if containsID(next, row[ColumnID]) {
				return Response{Error: fmt.Errorf("%w: %s %v", ErrDuplicateID, spec.Table, row[ColumnID])}, nil
			}
			next = append(next, row)
			result = append(result, row)
			continue
		}

		old := next[idx]
		merged := old.Clone()
		for k, val := range row {
			if k == ColumnID || k == ColumnCreatedAt {
				continue
			}
			merged[k] = val
		}
		next[idx] = merged
		if !updated {
			firstOld = old
		}
		updated = true
		result = append(result, merged)
	}

	if err := db.commit(ctx, spec.Table, next); err != nil {
		return Response{Error: err}, nil
	}

	change := realtime.Change{Table: spec.Table, Event: realtime.EventInsert, New: result[0].Clone()}
	if updated {
		change.Event = realtime.EventUpdate
		change.Old = firstOld.Clone()
	}
	return mutationResponse(cloneRows(result), spec), []realtime.Change{change}
}

func conflictKeys(row Row, columns []string) ([]Condition, bool) {
	keys := make([]Condition, 0, len(columns))
	for _, c := range columns {
		v, ok := row[c]
		if !ok {
			return nil, false
		}
		keys = append(keys, Condition{Field: c, Value: v})
	}
	return keys, true
}

func (db *DB) evalUpdate(ctx context.Context, spec QuerySpec) (Response, []realtime.Change) {
	if len(spec.Filters) == 0 {
		return Response{Error: ErrFilterRequired}, nil
	}
	patch, err := toRow(spec.Patch)
	if err != nil {
		return Response{Error: err}, nil
	}

	current := db.tables[spec.Table]
	idx := firstMatch(current, spec.Filters)
	if idx < 0 {
		return Response{}, nil
	}

	old := current[idx]
	if id, ok := patch[ColumnID]; ok {
		if j := firstMatch(current, []Condition{{Field: ColumnID, Value: id}}); j >= 0 && j != idx {
			return Response{Error: fmt.Errorf("%w: %s %v", ErrDuplicateID, spec.Table, id)}, nil
		}
	}
	merged := old.Clone()
	for k, v := range patch {
		merged[k] = v
	}
	next := slices.Clone(current)
	next[idx] = merged

	if err := db.commit(ctx, spec.Table, next); err != nil {
		return Response{Error: err}, nil
	}

	change := realtime.Change{Table: spec.Table, Event: realtime.EventUpdate, New: merged.Clone(), Old: old.Clone()}
	return singleRowResponse(merged.Clone(), spec), []realtime.Change{change}
}

func (db *DB) evalDelete(ctx context.Context, spec QuerySpec) (Response, []realtime.Change) {
	if len(spec.Filters) == 0 {
		return Response{Error: ErrFilterRequired}, nil
	}

	current := db.tables[spec.Table]
	idx := firstMatch(current, spec.Filters)
	if idx < 0 {
		return Response{}, nil
	}

	removed := current[idx]
	next := slices.Delete(slices.Clone(current), idx, idx+1)

	if err := db.commit(ctx, spec.Table, next); err != nil {
		return Response{Error: err}, nil
	}

	change := realtime.Change{Table: spec.Table, Event: realtime.EventDelete, Old: removed.Clone()}
	return singleRowResponse(removed.Clone(), spec), []realtime.Change{change}
}

func mutationResponse(rows []Row, spec QuerySpec) Response {
	rows = project(rows, spec.Columns, "")
	if spec.Single {
		return Response{Data: rows[0]}
	}
	return Response{Data: rows}
}

func singleRowResponse(row Row, spec QuerySpec) Response {
	return Response{Data: project([]Row{row}, spec.Columns, "")[0]}
}
