// Package bigquery implements domain.Backend on top of the Google BigQuery
// client library.
package bigquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"bq-bridge/internal/domain"
	"bq-bridge/internal/logging"
	"bq-bridge/internal/sqlgen"
)

// Compile-time check.
var _ domain.Backend = (*Backend)(nil)

// Config holds what is needed to open a BigQuery client.
type Config struct {
	ProjectID string
	// CredentialsFile is a service account key file. Empty means application
	// default credentials.
	CredentialsFile string
	// Location pins query jobs to a region ("EU", "us-east1"). Optional.
	Location string
	Logger   *slog.Logger
}

// Backend talks to one BigQuery project.
type Backend struct {
	client *bq.Client
	logger *slog.Logger
}

// Open creates the BigQuery client. Failures are returned as
// *domain.ConnectionError.
func Open(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Backend, error) {
	if err := sqlgen.ValidateProjectID(cfg.ProjectID); err != nil {
		return nil, domain.ErrValidation("invalid project: %v", err)
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}

	client, err := bq.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, domain.ErrConnection(err, "create bigquery client for project %s", cfg.ProjectID)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Backend{client: client, logger: logger.With("backend", sqlgen.BigQuery)}, nil
}

// Dialect implements domain.Backend.
func (b *Backend) Dialect() string { return sqlgen.BigQuery }

// TableExists implements domain.Backend.
func (b *Backend) TableExists(ctx context.Context, dataset, table string) (bool, error) {
	_, err := b.client.Dataset(dataset).Table(table).Metadata(ctx)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("get metadata for %s.%s: %w", dataset, table, err)
}

// CreateTable implements domain.Backend.
func (b *Backend) CreateTable(ctx context.Context, dataset, table string, schema domain.TableSchema) error {
	meta := &bq.TableMetadata{Schema: toSchema(schema)}
	if err := b.client.Dataset(dataset).Table(table).Create(ctx, meta); err != nil {
		return fmt.Errorf("create %s.%s: %w", dataset, table, err)
	}
	return nil
}

// DeleteTable implements domain.Backend.
func (b *Backend) DeleteTable(ctx context.Context, dataset, table string) error {
	err := b.client.Dataset(dataset).Table(table).Delete(ctx)
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return domain.ErrNotFound("table %s.%s not found", dataset, table)
	}
	return fmt.Errorf("delete %s.%s: %w", dataset, table, err)
}

// Close implements domain.Backend.
func (b *Backend) Close() error {
	return b.client.Close()
}

// isNotFound reports whether err is an HTTP 404 from the BigQuery API.
func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
