// Package app wires configuration, the selected backend, and the warehouse
// client together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"bq-bridge/internal/bigquery"
	"bq-bridge/internal/config"
	"bq-bridge/internal/domain"
	"bq-bridge/internal/localdb"
	"bq-bridge/internal/logging"
	"bq-bridge/internal/source"
	"bq-bridge/internal/warehouse"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
	// Backend overrides the backend selected by Cfg.Backend. Used in tests.
	Backend domain.Backend
}

// App holds the fully-wired client and the input opener the CLI uses.
type App struct {
	Config  *config.Config
	Client  *warehouse.Client
	Sources *source.Opener
	Logger  *slog.Logger
}

// New validates the config, opens the backend and builds the client.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	backend := deps.Backend
	if backend == nil {
		var err error
		backend, err = openBackend(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	client, err := warehouse.New(backend, warehouse.Options{
		ProjectID:          cfg.ProjectID,
		DatasetID:          cfg.DatasetID,
		FlagColumn:         cfg.FlagColumn,
		UseQueryParameters: cfg.QueryParameters,
		Logger:             logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	logger.Debug("warehouse client ready",
		"backend", backend.Dialect(),
		"project", cfg.ProjectID,
		"dataset", cfg.DatasetID,
		"query_parameters", cfg.QueryParameters,
	)
	return &App{
		Config:  cfg,
		Client:  client,
		Sources: source.NewOpener(cfg.Sources),
		Logger:  logger,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Client.Close()
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Backend, error) {
	if cfg.IsBigQuery() {
		return bigquery.Open(ctx, bigquery.Config{
			ProjectID:       cfg.ProjectID,
			CredentialsFile: cfg.CredentialsFile,
			Location:        cfg.Location,
			Logger:          logger,
		})
	}
	return localdb.Open(ctx, localdb.Config{
		Dialect: cfg.Backend,
		DSN:     cfg.DSN,
		Logger:  logger,
	})
}
