package warehouse

import (
	"context"
	"fmt"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/sqlgen"
)

// InsertRows streams batch into tableID through the backend's structured
// insert. Every rejected field is logged; the returned *domain.InvalidRowError
// carries all failed rows.
func (c *Client) InsertRows(ctx context.Context, tableID string, batch domain.InsertBatch) error {
	if err := sqlgen.ValidateTableName(tableID); err != nil {
		return domain.ErrValidation("invalid table name: %v", err)
	}
	if len(batch) == 0 {
		return nil
	}
	for i, rec := range batch {
		if rec.Len() == 0 {
			return domain.ErrValidation("row %d has no columns", i)
		}
		for _, k := range rec.Keys() {
			if err := sqlgen.ValidateIdentifier(k); err != nil {
				return domain.ErrValidation("row %d: invalid column name %q: %v", i, k, err)
			}
		}
	}

	resp, err := c.backend.InsertRows(ctx, c.datasetID, tableID, batch)
	if err != nil {
		return fmt.Errorf("insert rows into %s: %w", tableID, err)
	}
	if resp.Successful() {
		c.logger.Debug("rows inserted", "table", tableID, "rows", len(batch))
		return nil
	}

	for _, row := range resp.FailedRows {
		for _, fe := range row.Errors {
			c.logger.Error(tableID+" - "+fe.Reason+":"+fe.Message,
				"table", tableID,
				"row", row.Index,
				"location", fe.Location,
			)
		}
	}
	return &domain.InvalidRowError{Table: tableID, Rows: resp.FailedRows}
}
