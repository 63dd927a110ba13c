package bigquery

import (
	"context"
	"errors"
	"fmt"

	bq "cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"bq-bridge/internal/domain"
)

// recordSaver adapts a domain.Record to bq.ValueSaver.
type recordSaver struct {
	rec      *domain.Record
	insertID string
}

// Save implements bq.ValueSaver.
func (s recordSaver) Save() (map[string]bq.Value, string, error) {
	row := make(map[string]bq.Value, s.rec.Len())
	for _, k := range s.rec.Keys() {
		v, _ := s.rec.Get(k)
		row[k] = v.Interface()
	}
	return row, s.insertID, nil
}

func toSavers(rows domain.InsertBatch) []bq.ValueSaver {
	savers := make([]bq.ValueSaver, len(rows))
	for i, rec := range rows {
		savers[i] = recordSaver{rec: rec, insertID: uuid.NewString()}
	}
	return savers
}

// InsertRows implements domain.Backend using the streaming insert API. Each
// row gets a random insert ID so the service can deduplicate retries.
func (b *Backend) InsertRows(ctx context.Context, dataset, table string, rows domain.InsertBatch) (*domain.InsertResponse, error) {
	ins := b.client.Dataset(dataset).Table(table).Inserter()
	err := ins.Put(ctx, toSavers(rows))
	if err == nil {
		return &domain.InsertResponse{}, nil
	}
	if resp, ok := insertResponse(err); ok {
		return resp, nil
	}
	return nil, fmt.Errorf("insert into %s.%s: %w", dataset, table, err)
}

// insertResponse turns a row-level Put failure into an InsertResponse.
// ok is false for transport and request errors.
func insertResponse(err error) (*domain.InsertResponse, bool) {
	var multi bq.PutMultiError
	if !errors.As(err, &multi) {
		return nil, false
	}
	resp := &domain.InsertResponse{FailedRows: make([]domain.FailedRow, 0, len(multi))}
	for _, rie := range multi {
		row := domain.FailedRow{Index: rie.RowIndex, InsertID: rie.InsertID}
		for _, e := range rie.Errors {
			row.Errors = append(row.Errors, rowError(e))
		}
		resp.FailedRows = append(resp.FailedRows, row)
	}
	return resp, true
}

func rowError(err error) domain.RowError {
	var be *bq.Error
	if errors.As(err, &be) {
		return domain.RowError{Reason: be.Reason, Location: be.Location, Message: be.Message}
	}
	return domain.RowError{Reason: "invalid", Message: err.Error()}
}
