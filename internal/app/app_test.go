package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bq-bridge/internal/config"
	"bq-bridge/internal/domain"
	"bq-bridge/internal/testutil"
)

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Deps{})
	require.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), Deps{Cfg: &config.Config{Backend: "bigquery", InsertBatchSize: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNew_InjectedBackend(t *testing.T) {
	var logs bytes.Buffer
	backend := &testutil.MockBackend{}
	cfg := &config.Config{
		ProjectID:       "my-project",
		DatasetID:       "analytics",
		Backend:         "bigquery",
		FlagColumn:      "synced",
		InsertBatchSize: 10,
		Warnings:        []string{"heads up"},
	}

	a, err := New(context.Background(), Deps{
		Cfg:     cfg,
		Backend: backend,
		Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "heads up")
	assert.Equal(t, "analytics", a.Client.DatasetID())
	assert.NotNil(t, a.Sources)

	_, err = a.Client.ExecuteInsert(context.Background(), "events",
		domain.NewRecord().Set("synced", domain.Bool(false)))
	require.NoError(t, err)
	require.Len(t, backend.Execs, 1)
	assert.Equal(t, "INSERT INTO `analytics`.`events` (`synced`) VALUES (0)", backend.Execs[0].SQL)

	require.NoError(t, a.Close())
	assert.True(t, backend.Closed)
}

func TestNew_LocalBackend(t *testing.T) {
	cfg := &config.Config{
		DatasetID:       "analytics",
		Backend:         "sqlite3",
		FlagColumn:      "inserted_to_datawarehouse",
		InsertBatchSize: 10,
	}
	a, err := New(context.Background(), Deps{Cfg: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	schema := domain.TableSchema{{Name: "id", Type: "INT64"}}
	require.NoError(t, a.Client.EnsureTable(ctx, "things", schema, false))

	done, err := a.Client.Upsert(ctx, "things",
		domain.NewRecord().Set("id", domain.Int(1)), domain.NewRecord())
	require.NoError(t, err)
	assert.True(t, done)

	n, err := a.Client.Count(ctx, "things", domain.NewRecord().Set("id", domain.Int(1)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
