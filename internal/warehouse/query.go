package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"google.golang.org/api/iterator"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/logging"
	"bq-bridge/internal/sqlgen"
)

// ExecuteInsert runs INSERT INTO <dataset>.<table> for one record and
// reports whether the job completed.
func (c *Client) ExecuteInsert(ctx context.Context, tableID string, rec *domain.Record) (bool, error) {
	stmt, err := c.builder.Insert(tableID, rec)
	if err != nil {
		return false, err
	}
	return c.exec(ctx, tableID, stmt)
}

// ExecuteUpdate runs UPDATE <dataset>.<table> SET ... WHERE <cond>. Empty
// strings in rec are written as NULL.
func (c *Client) ExecuteUpdate(ctx context.Context, tableID string, cond, rec *domain.Record) (bool, error) {
	stmt, err := c.builder.Update(tableID, cond, rec)
	if err != nil {
		return false, err
	}
	return c.exec(ctx, tableID, stmt)
}

// Count returns the number of rows in tableID matching cond.
func (c *Client) Count(ctx context.Context, tableID string, cond *domain.Record) (int64, error) {
	stmt, err := c.builder.Count(tableID, cond)
	if err != nil {
		return 0, err
	}

	it, err := c.backend.Query(ctx, stmt)
	if err != nil {
		return 0, &domain.QueryExecutionError{SQL: stmt.SQL, Err: err}
	}

	var total int64
	for {
		var row domain.Row
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, &domain.QueryExecutionError{SQL: stmt.SQL, Err: err}
		}
		n, err := toInt64(row[sqlgen.CountAlias])
		if err != nil {
			return 0, &domain.QueryExecutionError{SQL: stmt.SQL, Err: err}
		}
		total = n
	}
	return total, nil
}

// exec submits stmt as a job and waits. Failures are logged at critical
// level and returned as *domain.QueryExecutionError.
func (c *Client) exec(ctx context.Context, tableID string, stmt domain.Statement) (bool, error) {
	done, err := c.backend.Exec(ctx, stmt)
	if err == nil && !done {
		err = &domain.QueryExecutionError{SQL: stmt.SQL}
	}
	if err != nil {
		logging.Critical(ctx, c.logger, "warehouse query failed",
			"table", tableID,
			"sql", stmt.SQL,
			"error", err,
		)
		var qe *domain.QueryExecutionError
		if errors.As(err, &qe) {
			return false, qe
		}
		return false, &domain.QueryExecutionError{SQL: stmt.SQL, Err: err}
	}
	return true, nil
}

// toInt64 normalizes the COUNT(*) value returned by the various drivers.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, fmt.Errorf("count column %q missing from result", sqlgen.CountAlias)
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
