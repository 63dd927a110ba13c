// Package config handles client configuration: defaults, an optional YAML
// file, a .env file, and environment variables, in increasing precedence.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bq-bridge/internal/logging"
	"bq-bridge/internal/sqlgen"
)

// SourceConfig holds credentials for reading schema and row files from
// object storage. All fields are optional.
type SourceConfig struct {
	GCSKeyFile       string `yaml:"gcs_key_file"`
	S3KeyID          string `yaml:"s3_key_id"`
	S3Secret         string `yaml:"s3_secret"`
	S3Endpoint       string `yaml:"s3_endpoint"`
	S3Region         string `yaml:"s3_region"`
	S3URLStyle       string `yaml:"s3_url_style"` // "path" (default) or "vhost"
	AzureAccountName string `yaml:"azure_account_name"`
	AzureAccountKey  string `yaml:"azure_account_key"`
}

// HasS3Config returns true if static S3 credentials are set.
func (s SourceConfig) HasS3Config() bool {
	return s.S3KeyID != "" && s.S3Secret != ""
}

// Config holds the warehouse connection and client settings.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	DatasetID       string `yaml:"dataset_id"`
	CredentialsFile string `yaml:"credentials_file"` // service account key file
	Location        string `yaml:"location"`
	FlagColumn      string `yaml:"flag_column"`
	QueryParameters bool   `yaml:"query_parameters"`

	// Backend is "bigquery" (default) or a local engine: duckdb, sqlite3, postgres.
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"` // local backends only

	LogLevel string `yaml:"log_level"` // debug, info, warn, error, critical

	// Structured inserts from the CLI.
	InsertBatchSize int     `yaml:"insert_batch_size"`
	InsertRate      float64 `yaml:"insert_rate"` // batches per second, 0 = unlimited

	Sources SourceConfig `yaml:"sources"`

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string `yaml:"-"`
}

// Default values.
const (
	DefaultBackend         = sqlgen.BigQuery
	DefaultLogLevel        = "info"
	DefaultInsertBatchSize = 500
)

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	return logging.ParseLevel(c.LogLevel)
}

// IsBigQuery reports whether the remote BigQuery backend is selected.
func (c *Config) IsBigQuery() bool {
	return c.Backend == sqlgen.BigQuery
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case sqlgen.BigQuery:
		if c.ProjectID == "" {
			errs = append(errs, fmt.Errorf("BQ_PROJECT_ID is required for the bigquery backend"))
		} else if err := sqlgen.ValidateProjectID(c.ProjectID); err != nil {
			errs = append(errs, fmt.Errorf("BQ_PROJECT_ID: %w", err))
		}
	case sqlgen.DuckDB, sqlgen.SQLite:
	case sqlgen.Postgres:
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("BQ_DSN is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported BQ_BACKEND %q", c.Backend))
	}
	if c.DatasetID == "" {
		errs = append(errs, fmt.Errorf("BQ_DATASET_ID is required"))
	} else if err := sqlgen.ValidateTableName(c.DatasetID); err != nil {
		errs = append(errs, fmt.Errorf("BQ_DATASET_ID: %w", err))
	}
	if c.FlagColumn != "" {
		if err := sqlgen.ValidateIdentifier(c.FlagColumn); err != nil {
			errs = append(errs, fmt.Errorf("BQ_FLAG_COLUMN: %w", err))
		}
	}
	if c.InsertBatchSize < 1 {
		errs = append(errs, fmt.Errorf("insert batch size must be positive, got %d", c.InsertBatchSize))
	}
	if c.InsertRate < 0 {
		errs = append(errs, fmt.Errorf("insert rate must not be negative, got %v", c.InsertRate))
	}
	return errors.Join(errs...)
}

// Load builds a Config from defaults, the optional YAML file at path, the
// .env file in the working directory, and the environment. It does not
// validate; call Validate once flags have been applied.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() error {
	setString(&c.ProjectID, "BQ_PROJECT_ID")
	setString(&c.DatasetID, "BQ_DATASET_ID")
	setString(&c.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Location, "BQ_LOCATION")
	setString(&c.FlagColumn, "BQ_FLAG_COLUMN")
	setString(&c.Backend, "BQ_BACKEND")
	setString(&c.DSN, "BQ_DSN")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Sources.GCSKeyFile, "GCS_KEY_FILE")
	setString(&c.Sources.S3KeyID, "S3_KEY_ID")
	setString(&c.Sources.S3Secret, "S3_SECRET")
	setString(&c.Sources.S3Endpoint, "S3_ENDPOINT")
	setString(&c.Sources.S3Region, "S3_REGION")
	setString(&c.Sources.S3URLStyle, "S3_URL_STYLE")
	setString(&c.Sources.AzureAccountName, "AZURE_STORAGE_ACCOUNT")
	setString(&c.Sources.AzureAccountKey, "AZURE_STORAGE_KEY")

	c.QueryParameters = parseBoolEnvDefault("BQ_QUERY_PARAMETERS", c.QueryParameters)

	if v := os.Getenv("BQ_INSERT_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BQ_INSERT_BATCH_SIZE: %w", err)
		}
		c.InsertBatchSize = n
	}
	if v := os.Getenv("BQ_INSERT_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BQ_INSERT_RATE: %w", err)
		}
		c.InsertRate = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.FlagColumn == "" {
		c.FlagColumn = sqlgen.DefaultFlagColumn
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.InsertBatchSize == 0 {
		c.InsertBatchSize = DefaultInsertBatchSize
	}
	c.Resolve()
}

// Resolve normalizes the backend name and recomputes Warnings. Call it again
// after overriding fields (for example from command-line flags).
func (c *Config) Resolve() {
	c.Backend = strings.ToLower(c.Backend)
	c.Warnings = nil
	if c.IsBigQuery() && c.CredentialsFile == "" {
		c.Warnings = append(c.Warnings, "GOOGLE_APPLICATION_CREDENTIALS not set, using application default credentials")
	}
	if !c.IsBigQuery() && c.ProjectID != "" {
		c.Warnings = append(c.Warnings, fmt.Sprintf("BQ_PROJECT_ID is ignored by the %s backend", c.Backend))
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
