// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"

	"google.golang.org/api/iterator"

	"bq-bridge/internal/domain"
)

// === Backend Mock ===

// TableCall records a table-level call on MockBackend.
type TableCall struct {
	Dataset string
	Table   string
	Schema  domain.TableSchema
}

// InsertCall records a structured insert on MockBackend.
type InsertCall struct {
	Dataset string
	Table   string
	Rows    domain.InsertBatch
}

// MockBackend implements domain.Backend for testing. Unset Fn fields fall
// back to benign defaults: tables don't exist, jobs complete, queries
// return no rows.
type MockBackend struct {
	DialectName string

	TableExistsFn func(ctx context.Context, dataset, table string) (bool, error)
	CreateTableFn func(ctx context.Context, dataset, table string, schema domain.TableSchema) error
	DeleteTableFn func(ctx context.Context, dataset, table string) error
	InsertRowsFn  func(ctx context.Context, dataset, table string, rows domain.InsertBatch) (*domain.InsertResponse, error)
	ExecFn        func(ctx context.Context, stmt domain.Statement) (bool, error)
	QueryFn       func(ctx context.Context, stmt domain.Statement) (domain.RowIterator, error)

	// Collected calls for assertions.
	Creates []TableCall
	Deletes []TableCall
	Inserts []InsertCall
	Execs   []domain.Statement
	Queries []domain.Statement
	Closed  bool
}

// Compile-time check.
var _ domain.Backend = (*MockBackend)(nil)

// Dialect implements the interface method for testing. Defaults to "bigquery".
func (m *MockBackend) Dialect() string {
	if m.DialectName == "" {
		return "bigquery"
	}
	return m.DialectName
}

// TableExists implements the interface method for testing.
func (m *MockBackend) TableExists(ctx context.Context, dataset, table string) (bool, error) {
	if m.TableExistsFn != nil {
		return m.TableExistsFn(ctx, dataset, table)
	}
	return false, nil
}

// CreateTable implements the interface method for testing.
func (m *MockBackend) CreateTable(ctx context.Context, dataset, table string, schema domain.TableSchema) error {
	m.Creates = append(m.Creates, TableCall{Dataset: dataset, Table: table, Schema: schema})
	if m.CreateTableFn != nil {
		return m.CreateTableFn(ctx, dataset, table, schema)
	}
	return nil
}

// DeleteTable implements the interface method for testing.
func (m *MockBackend) DeleteTable(ctx context.Context, dataset, table string) error {
	m.Deletes = append(m.Deletes, TableCall{Dataset: dataset, Table: table})
	if m.DeleteTableFn != nil {
		return m.DeleteTableFn(ctx, dataset, table)
	}
	return nil
}

// InsertRows implements the interface method for testing.
func (m *MockBackend) InsertRows(ctx context.Context, dataset, table string, rows domain.InsertBatch) (*domain.InsertResponse, error) {
	m.Inserts = append(m.Inserts, InsertCall{Dataset: dataset, Table: table, Rows: rows})
	if m.InsertRowsFn != nil {
		return m.InsertRowsFn(ctx, dataset, table, rows)
	}
	return &domain.InsertResponse{}, nil
}

// Exec implements the interface method for testing.
func (m *MockBackend) Exec(ctx context.Context, stmt domain.Statement) (bool, error) {
	m.Execs = append(m.Execs, stmt)
	if m.ExecFn != nil {
		return m.ExecFn(ctx, stmt)
	}
	return true, nil
}

// Query implements the interface method for testing.
func (m *MockBackend) Query(ctx context.Context, stmt domain.Statement) (domain.RowIterator, error) {
	m.Queries = append(m.Queries, stmt)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, stmt)
	}
	return &RowsIterator{}, nil
}

// Close implements the interface method for testing.
func (m *MockBackend) Close() error {
	m.Closed = true
	return nil
}

// === Row Iterator ===

// RowsIterator implements domain.RowIterator over a fixed slice. Err, when
// set, is returned once the rows are consumed instead of iterator.Done.
type RowsIterator struct {
	Rows []domain.Row
	Err  error
	pos  int
}

// Next implements the interface method for testing.
func (it *RowsIterator) Next(dst *domain.Row) error {
	if it.pos >= len(it.Rows) {
		if it.Err != nil {
			return it.Err
		}
		return iterator.Done
	}
	*dst = it.Rows[it.pos]
	it.pos++
	return nil
}

// CountRows returns an iterator yielding a single {"total": n} row.
func CountRows(n int64) *RowsIterator {
	return &RowsIterator{Rows: []domain.Row{{"total": n}}}
}
