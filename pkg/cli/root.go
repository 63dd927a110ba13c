// Package cli implements the bqw command-line interface over the warehouse
// client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"bq-bridge/internal/app"
	"bq-bridge/internal/config"
	"bq-bridge/internal/domain"
	"bq-bridge/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd(&runtime{stderr: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, errorObject(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorObject renders err for JSON output, with failed-row detail when
// available.
func errorObject(err error) map[string]interface{} {
	errObj := map[string]interface{}{
		"error": err.Error(),
	}
	var rowErr *domain.InvalidRowError
	if errors.As(err, &rowErr) {
		errObj["table"] = rowErr.Table
		errObj["failed_rows"] = rowErr.Rows
	}
	var qe *domain.QueryExecutionError
	if errors.As(err, &qe) {
		errObj["sql"] = qe.SQL
	}
	return errObj
}

// runtime carries the resolved global flags and builds the App on demand.
type runtime struct {
	configPath  string
	output      string
	project     string
	dataset     string
	backend     string
	dsn         string
	credentials string
	location    string
	logLevel    string
	queryParams bool

	flags  *pflag.FlagSet
	stderr io.Writer

	// backendOverride replaces the configured backend. Used in tests.
	backendOverride domain.Backend
}

// loadConfig resolves configuration with precedence:
// flag > env > .env > config file > default.
func (r *runtime) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return nil, err
	}
	set := func(name string, dst *string, v string) {
		if r.flags.Changed(name) {
			*dst = v
		}
	}
	set("project", &cfg.ProjectID, r.project)
	set("dataset", &cfg.DatasetID, r.dataset)
	set("backend", &cfg.Backend, r.backend)
	set("dsn", &cfg.DSN, r.dsn)
	set("credentials", &cfg.CredentialsFile, r.credentials)
	set("location", &cfg.Location, r.location)
	set("log-level", &cfg.LogLevel, r.logLevel)
	if r.flags.Changed("query-params") {
		cfg.QueryParameters = r.queryParams
	}
	cfg.Resolve()
	return cfg, nil
}

// open builds the App for one command invocation. The caller must Close it.
func (r *runtime) open(ctx context.Context) (*app.App, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	stderr := r.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := logging.New(stderr, cfg.SlogLevel())
	return app.New(ctx, app.Deps{Cfg: cfg, Logger: logger, Backend: r.backendOverride})
}

func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bqw",
		Short: "BigQuery warehouse client",
		Long: `Command-line interface for creating tables and writing rows to a
BigQuery dataset, or to a local DuckDB, SQLite or PostgreSQL stand-in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateOutputFormat(rt.output)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rt.configPath, "config", "c", "", "YAML config file")
	flags.StringVarP(&rt.output, "output", "o", "table", "Output format (table, json)")
	flags.StringVar(&rt.project, "project", "", "GCP project ID (env BQ_PROJECT_ID)")
	flags.StringVarP(&rt.dataset, "dataset", "d", "", "Dataset ID (env BQ_DATASET_ID)")
	flags.StringVar(&rt.backend, "backend", "", "Backend: bigquery, duckdb, sqlite3, postgres (env BQ_BACKEND)")
	flags.StringVar(&rt.dsn, "dsn", "", "Connection string for local backends (env BQ_DSN)")
	flags.StringVar(&rt.credentials, "credentials", "", "Service account key file (env GOOGLE_APPLICATION_CREDENTIALS)")
	flags.StringVar(&rt.location, "location", "", "BigQuery job location (env BQ_LOCATION)")
	flags.StringVar(&rt.logLevel, "log-level", "", "Log level: debug, info, warn, error, critical (env LOG_LEVEL)")
	flags.BoolVar(&rt.queryParams, "query-params", false, "Bind values as query parameters (env BQ_QUERY_PARAMETERS)")
	rt.flags = flags

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newEnsureTableCmd(rt))
	rootCmd.AddCommand(newInsertCmd(rt))
	rootCmd.AddCommand(newInsertSQLCmd(rt))
	rootCmd.AddCommand(newUpdateCmd(rt))
	rootCmd.AddCommand(newUpsertCmd(rt))
	rootCmd.AddCommand(newCountCmd(rt))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
