package domain

import "context"

// Param is a bound query parameter. Name is used by backends with named
// parameters (BigQuery @name); positional backends use slice order.
type Param struct {
	Name  string
	Value any
}

// Statement is a SQL text plus the parameters it references.
type Statement struct {
	SQL    string
	Params []Param
}

// InsertResponse is the outcome of a structured insert.
type InsertResponse struct {
	FailedRows []FailedRow
}

// Successful reports whether every row was accepted.
func (r *InsertResponse) Successful() bool {
	return r == nil || len(r.FailedRows) == 0
}

// RowIterator yields query result rows. Next returns iterator.Done
// (google.golang.org/api/iterator) once the rows are exhausted.
type RowIterator interface {
	Next(dst *Row) error
}

// Backend is the remote warehouse as seen by the client.
// Implemented by bigquery.Backend and localdb.Backend.
type Backend interface {
	// Dialect names the SQL dialect statements must be rendered in.
	Dialect() string

	TableExists(ctx context.Context, dataset, table string) (bool, error)
	CreateTable(ctx context.Context, dataset, table string, schema TableSchema) error
	// DeleteTable returns a *NotFoundError when the table does not exist.
	DeleteTable(ctx context.Context, dataset, table string) error

	// InsertRows uses the native structured insert path. Row-level rejections
	// are reported in the response, not as an error.
	InsertRows(ctx context.Context, dataset, table string, rows InsertBatch) (*InsertResponse, error)

	// Exec runs a statement as a job and waits for it; done reports whether
	// the job reached completion.
	Exec(ctx context.Context, stmt Statement) (done bool, err error)

	// Query runs a statement and returns its result rows.
	Query(ctx context.Context, stmt Statement) (RowIterator, error)

	Close() error
}
