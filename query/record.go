// Package query executes parameterized statements against the analytical
// engine and returns rows as plain, JSON-serializable records.
//
// Information Hiding:
// - Row scanning and driver value conversion hidden
// - Wide-integer normalization hidden behind Execute
// - Column ordering preserved without exposing the backing structures
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one result row: an ordered mapping from column name to value.
// Column order is whatever the statement produced; JSON marshaling preserves it.
type Record struct {
	columns []string
	values  map[string]any
}

// NewRecord builds a record from parallel column/value slices.
// Extra values beyond the column list are dropped.
func NewRecord(columns []string, values []any) Record {
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		if i < len(values) {
			m[col] = values[i]
		} else {
			m[col] = nil
		}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Record{columns: cols, values: m}
}

// Columns returns the column names in result order.
func (r Record) Columns() []string {
	cols := make([]string, len(r.columns))
	copy(cols, r.columns)
	return cols
}

// Get returns the value for a column and whether the column exists.
func (r Record) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the value for a column, or nil if absent.
func (r Record) Value(column string) any {
	return r.values[column]
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.columns)
}

// MarshalJSON emits the record as a JSON object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
