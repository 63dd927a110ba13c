package domain

import (
	"fmt"
	"sort"
)

// Record is an ordered mapping from column name to Value. Column order is the
// order in which keys were first set; statements are built in that order.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

// Set assigns a column. Re-setting an existing column keeps its position.
func (r *Record) Set(column string, v Value) *Record {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[column]; !ok {
		r.keys = append(r.keys, column)
	}
	r.values[column] = v
	return r
}

// Get returns the value for column and whether it was present.
func (r *Record) Get(column string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.values[column]
	return v, ok
}

// Keys returns the columns in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Merge returns a new record holding r's columns followed by other's new
// columns. On collision the value from other wins and r's position is kept.
func (r *Record) Merge(other *Record) *Record {
	out := NewRecord()
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		out.Set(k, v)
	}
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		out.Set(k, v)
	}
	return out
}

// Map returns the record as plain Go values keyed by column.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, r.Len())
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		out[k] = v.Interface()
	}
	return out
}

// RecordFromMap builds a record from a plain map. Map iteration order is not
// stable, so keys are sorted to keep generated statements deterministic.
func RecordFromMap(m map[string]any) (*Record, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := NewRecord()
	for _, k := range keys {
		v, err := FromAny(m[k])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, withColumn(err, k))
		}
		rec.Set(k, v)
	}
	return rec, nil
}

// Condition is a set of column = value predicates joined with AND.
type Condition = Record

// InsertBatch is a sequence of records destined for structured insert.
type InsertBatch []*Record

// Row is one result row from a query, keyed by output column name.
type Row map[string]any
