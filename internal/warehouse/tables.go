package warehouse

import (
	"context"
	"fmt"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/sqlgen"
)

// EnsureTable makes sure tableID exists with schema.
//
//   - exists and !forceRecreate: no-op
//   - forceRecreate: drop (a missing table is fine), then create
//   - missing: create
//
// There is no rollback if create fails after a drop.
func (c *Client) EnsureTable(ctx context.Context, tableID string, schema domain.TableSchema, forceRecreate bool) error {
	if err := sqlgen.ValidateTableName(tableID); err != nil {
		return domain.ErrValidation("invalid table name: %v", err)
	}
	if err := sqlgen.ValidateSchema(schema); err != nil {
		return err
	}

	if forceRecreate {
		err := c.backend.DeleteTable(ctx, c.datasetID, tableID)
		switch {
		case err == nil:
			c.logger.Info("table dropped for recreate", "table", tableID)
		case domain.IsNotFound(err):
			c.logger.Warn("table not found, nothing to drop", "table", tableID)
		default:
			return fmt.Errorf("drop table %s: %w", tableID, err)
		}
	} else {
		exists, err := c.backend.TableExists(ctx, c.datasetID, tableID)
		if err != nil {
			return fmt.Errorf("check table %s: %w", tableID, err)
		}
		if exists {
			return nil
		}
	}

	if err := c.backend.CreateTable(ctx, c.datasetID, tableID, schema); err != nil {
		return fmt.Errorf("create table %s: %w", tableID, err)
	}
	c.logger.Info("table created", "table", tableID, "fields", len(schema))
	return nil
}
