package warehouse

import (
	"context"

	"bq-bridge/internal/domain"
)

// Upsert updates the rows of tableID matching cond with data, or inserts
// cond merged with data when none match. The existence check is a COUNT
// query; if it fails the upsert fails with *domain.ExistenceCheckError.
func (c *Client) Upsert(ctx context.Context, tableID string, cond, data *domain.Record) (bool, error) {
	if cond.Len() == 0 {
		return false, domain.ErrValidation("upsert %s: condition is required", tableID)
	}

	total, err := c.Count(ctx, tableID, cond)
	if err != nil {
		if isValidation(err) {
			return false, err
		}
		c.logger.Error("upsert existence check failed", "table", tableID, "error", err)
		return false, &domain.ExistenceCheckError{Table: tableID, Err: err}
	}

	if total > 0 {
		c.logger.Debug("upsert matched existing rows", "table", tableID, "rows", total)
		return c.ExecuteUpdate(ctx, tableID, cond, data)
	}
	return c.ExecuteInsert(ctx, tableID, cond.Merge(data))
}
