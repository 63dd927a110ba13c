package cli

import (
	"bytes"
	"context"
	"testing"

	"bq-bridge/internal/domain"
)

var configEnvKeys = []string{
	"BQ_PROJECT_ID", "BQ_DATASET_ID", "GOOGLE_APPLICATION_CREDENTIALS", "BQ_LOCATION",
	"BQ_FLAG_COLUMN", "BQ_QUERY_PARAMETERS", "BQ_BACKEND", "BQ_DSN", "LOG_LEVEL",
	"BQ_INSERT_BATCH_SIZE", "BQ_INSERT_RATE",
	"GCS_KEY_FILE", "S3_KEY_ID", "S3_SECRET", "S3_ENDPOINT", "S3_REGION", "S3_URL_STYLE",
	"AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY",
}

// isolateEnv clears configuration variables and runs the test from an empty
// directory so a developer's .env does not leak in. Returns that directory.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// cmdResult holds what one CLI invocation wrote.
type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// runCmd executes the root command with args. A non-nil backend replaces the
// configured one.
func runCmd(t *testing.T, backend domain.Backend, args ...string) cmdResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rt := &runtime{stderr: &stderr, backendOverride: backend}
	root := newRootCmd(rt)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}
