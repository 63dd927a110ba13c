// Package warehouse is the client-facing API: table management, structured
// row inserts, SQL insert/update, and upsert on top of a domain.Backend.
package warehouse

import (
	"errors"
	"log/slog"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/logging"
	"bq-bridge/internal/sqlgen"
)

// Options configures a Client.
type Options struct {
	ProjectID string
	DatasetID string
	// FlagColumn is written as 0/1; defaults to sqlgen.DefaultFlagColumn.
	FlagColumn string
	// UseQueryParameters binds values instead of inlining literals.
	UseQueryParameters bool
	Logger             *slog.Logger
}

// Client issues warehouse operations against one dataset. Calls are
// synchronous; a Client must not be shared between goroutines.
type Client struct {
	backend   domain.Backend
	builder   *sqlgen.Builder
	dialect   sqlgen.Dialect
	projectID string
	datasetID string
	logger    *slog.Logger
}

// New wraps backend. The dataset is required; the project is required for
// the BigQuery dialect only.
func New(backend domain.Backend, opts Options) (*Client, error) {
	if backend == nil {
		return nil, domain.ErrValidation("backend is required")
	}
	dialect, err := sqlgen.LookupDialect(backend.Dialect())
	if err != nil {
		return nil, domain.ErrValidation("%v", err)
	}
	if dialect.Name() == sqlgen.BigQuery || opts.ProjectID != "" {
		if err := sqlgen.ValidateProjectID(opts.ProjectID); err != nil {
			return nil, domain.ErrValidation("invalid project: %v", err)
		}
	}
	if err := sqlgen.ValidateTableName(opts.DatasetID); err != nil {
		return nil, domain.ErrValidation("invalid dataset: %v", err)
	}

	flag := opts.FlagColumn
	if flag == "" {
		flag = sqlgen.DefaultFlagColumn
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	projectRef := opts.ProjectID
	if dialect.Name() != sqlgen.BigQuery {
		projectRef = ""
	}

	return &Client{
		backend:   backend,
		builder:   sqlgen.NewBuilder(dialect, projectRef, opts.DatasetID, flag, opts.UseQueryParameters),
		dialect:   dialect,
		projectID: opts.ProjectID,
		datasetID: opts.DatasetID,
		logger:    logger.With("dataset", opts.DatasetID),
	}, nil
}

// ProjectID returns the configured project.
func (c *Client) ProjectID() string { return c.projectID }

// DatasetID returns the configured dataset.
func (c *Client) DatasetID() string { return c.datasetID }

// Close releases the backend connection.
func (c *Client) Close() error {
	return c.backend.Close()
}

func isValidation(err error) bool {
	var ve *domain.ValidationError
	var ee *domain.EncodingError
	return errors.As(err, &ve) || errors.As(err, &ee)
}
