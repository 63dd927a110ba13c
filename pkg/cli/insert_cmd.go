package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"bq-bridge/internal/domain"
)

func newInsertCmd(rt *runtime) *cobra.Command {
	var (
		rowsLocation string
		batchSize    int
		batchRate    float64
	)

	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Stream rows into a table through the structured insert API",
		Long: `Reads rows from a JSON array or JSON Lines file and inserts them in
batches. Batches run one after another; --rate limits how many start per
second. The command stops at the first batch with rejected rows and reports
every rejected row of that batch.`,
		Example: `  bqw insert contacts --rows contacts.jsonl
  cat contacts.jsonl | bqw insert contacts --rows - --batch-size 100 --rate 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if !cmd.Flags().Changed("batch-size") {
				batchSize = a.Config.InsertBatchSize
			}
			if !cmd.Flags().Changed("rate") {
				batchRate = a.Config.InsertRate
			}
			if batchSize < 1 {
				return errors.New("--batch-size must be positive")
			}

			data, err := readLocation(ctx, a.Sources, rowsLocation)
			if err != nil {
				return err
			}
			records, err := parseRecords(data)
			if err != nil {
				return err
			}

			limit := rate.Inf
			if batchRate > 0 {
				limit = rate.Limit(batchRate)
			}
			limiter := rate.NewLimiter(limit, 1)

			batches := splitBatches(records, batchSize)
			inserted := 0
			for i, batch := range batches {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				if err := a.Client.InsertRows(ctx, args[0], batch); err != nil {
					a.Logger.Error("batch rejected", "table", args[0], "batch", i, "inserted_before", inserted)
					return err
				}
				inserted += len(batch)
			}

			return printResult(cmd, map[string]interface{}{
				"table":   args[0],
				"rows":    inserted,
				"batches": len(batches),
			}, "table", "rows", "batches")
		},
	}

	cmd.Flags().StringVar(&rowsLocation, "rows", "", "Rows file (path, -, gs://, s3://, az://)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per insert request (default from config)")
	cmd.Flags().Float64Var(&batchRate, "rate", 0, "Maximum batches per second, 0 for unlimited (default from config)")
	_ = cmd.MarkFlagRequired("rows")
	return cmd
}

// splitBatches cuts records into consecutive batches of at most size rows.
func splitBatches(records []*domain.Record, size int) []domain.InsertBatch {
	var out []domain.InsertBatch
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		out = append(out, domain.InsertBatch(records[start:end]))
	}
	return out
}
