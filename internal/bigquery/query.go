package bigquery

import (
	"context"
	"fmt"

	bq "cloud.google.com/go/bigquery"

	"bq-bridge/internal/domain"
)

func (b *Backend) newQuery(stmt domain.Statement) *bq.Query {
	q := b.client.Query(stmt.SQL)
	q.Parameters = toParameters(stmt.Params)
	return q
}

// Exec implements domain.Backend. It starts a query job and blocks until the
// job finishes.
func (b *Backend) Exec(ctx context.Context, stmt domain.Statement) (bool, error) {
	job, err := b.newQuery(stmt).Run(ctx)
	if err != nil {
		return false, fmt.Errorf("start job: %w", err)
	}
	b.logger.Debug("query job started", "job_id", job.ID())

	status, err := job.Wait(ctx)
	if err != nil {
		return false, fmt.Errorf("wait for job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return false, fmt.Errorf("job %s: %w", job.ID(), err)
	}
	return status.Done(), nil
}

// Query implements domain.Backend.
func (b *Backend) Query(ctx context.Context, stmt domain.Statement) (domain.RowIterator, error) {
	it, err := b.newQuery(stmt).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}
	return &rowIterator{it: it}, nil
}

func toParameters(params []domain.Param) []bq.QueryParameter {
	if len(params) == 0 {
		return nil
	}
	out := make([]bq.QueryParameter, len(params))
	for i, p := range params {
		out[i] = bq.QueryParameter{Name: p.Name, Value: p.Value}
	}
	return out
}

// rowIterator adapts *bq.RowIterator to domain.RowIterator.
type rowIterator struct {
	it *bq.RowIterator
}

// Next implements domain.RowIterator. It returns iterator.Done at the end.
func (r *rowIterator) Next(dst *domain.Row) error {
	var values map[string]bq.Value
	if err := r.it.Next(&values); err != nil {
		return err
	}
	*dst = toRow(values)
	return nil
}

func toRow(values map[string]bq.Value) domain.Row {
	row := make(domain.Row, len(values))
	for k, v := range values {
		row[k] = v
	}
	return row
}
