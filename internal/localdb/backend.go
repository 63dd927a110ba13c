package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"google.golang.org/api/iterator"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/sqlgen"
)

// Compile-time check.
var _ domain.Backend = (*Backend)(nil)

// Backend runs warehouse operations against a database/sql pool.
type Backend struct {
	db      *sql.DB
	dialect sqlgen.Dialect
	logger  *slog.Logger
}

// Dialect implements domain.Backend.
func (b *Backend) Dialect() string { return b.dialect.Name() }

// TableExists implements domain.Backend.
func (b *Backend) TableExists(ctx context.Context, dataset, table string) (bool, error) {
	stmt, err := sqlgen.TableExists(b.dialect, dataset, table)
	if err != nil {
		return false, domain.ErrValidation("%v", err)
	}
	var n int64
	if err := b.db.QueryRowContext(ctx, stmt.SQL, args(stmt.Params)...).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %s.%s: %w", dataset, table, err)
	}
	return n > 0, nil
}

// CreateTable implements domain.Backend. The dataset schema is created on
// demand.
func (b *Backend) CreateTable(ctx context.Context, dataset, table string, schema domain.TableSchema) error {
	if ddl, err := sqlgen.CreateSchema(b.dialect, dataset); err != nil {
		return domain.ErrValidation("%v", err)
	} else if ddl != "" {
		if _, err := b.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create schema %s: %w", dataset, err)
		}
	}

	ddl, err := sqlgen.CreateTable(b.dialect, dataset, table, schema)
	if err != nil {
		return domain.ErrValidation("%v", err)
	}
	b.logger.Debug("creating table", "sql", ddl)
	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s.%s: %w", dataset, table, err)
	}
	return nil
}

// DeleteTable implements domain.Backend.
func (b *Backend) DeleteTable(ctx context.Context, dataset, table string) error {
	exists, err := b.TableExists(ctx, dataset, table)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound("table %s.%s not found", dataset, table)
	}
	ddl, err := sqlgen.DropTable(b.dialect, dataset, table)
	if err != nil {
		return domain.ErrValidation("%v", err)
	}
	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("drop %s.%s: %w", dataset, table, err)
	}
	return nil
}

// InsertRows implements domain.Backend. Rows are inserted one statement at a
// time; a row the database rejects is reported in the response and does not
// stop the remaining rows.
func (b *Backend) InsertRows(ctx context.Context, dataset, table string, rows domain.InsertBatch) (*domain.InsertResponse, error) {
	builder := sqlgen.NewBuilder(b.dialect, "", dataset, "", true)
	resp := &domain.InsertResponse{}
	for i, rec := range rows {
		stmt, err := builder.Insert(table, rec)
		if err == nil {
			_, err = b.db.ExecContext(ctx, stmt.SQL, args(stmt.Params)...)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			resp.FailedRows = append(resp.FailedRows, domain.FailedRow{
				Index:  i,
				Errors: []domain.RowError{{Reason: "invalid", Message: err.Error()}},
			})
		}
	}
	return resp, nil
}

// Exec implements domain.Backend.
func (b *Backend) Exec(ctx context.Context, stmt domain.Statement) (bool, error) {
	if _, err := b.db.ExecContext(ctx, stmt.SQL, args(stmt.Params)...); err != nil {
		return false, err
	}
	return true, nil
}

// Query implements domain.Backend.
func (b *Backend) Query(ctx context.Context, stmt domain.Statement) (domain.RowIterator, error) {
	rows, err := b.db.QueryContext(ctx, stmt.SQL, args(stmt.Params)...)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	return &rowIterator{rows: rows, cols: cols}, nil
}

// Close implements domain.Backend.
func (b *Backend) Close() error {
	return b.db.Close()
}

// args flattens statement parameters in placeholder order.
func args(params []domain.Param) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = p.Value
	}
	return out
}

// rowIterator adapts *sql.Rows to domain.RowIterator.
type rowIterator struct {
	rows *sql.Rows
	cols []string
	done bool
}

// Next implements domain.RowIterator.
func (r *rowIterator) Next(dst *domain.Row) error {
	if r.done {
		return iterator.Done
	}
	if !r.rows.Next() {
		r.done = true
		err := r.rows.Err()
		_ = r.rows.Close()
		if err != nil {
			return err
		}
		return iterator.Done
	}

	values := make([]any, len(r.cols))
	ptrs := make([]any, len(r.cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		r.done = true
		_ = r.rows.Close()
		return fmt.Errorf("scan row: %w", err)
	}

	row := make(domain.Row, len(r.cols))
	for i, c := range r.cols {
		if raw, ok := values[i].([]byte); ok {
			row[c] = string(raw)
			continue
		}
		row[c] = values[i]
	}
	*dst = row
	return nil
}
