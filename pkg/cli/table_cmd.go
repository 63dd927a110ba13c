package cli

import (
	"github.com/spf13/cobra"
)

func newEnsureTableCmd(rt *runtime) *cobra.Command {
	var (
		schemaLocation string
		force          bool
	)

	cmd := &cobra.Command{
		Use:   "ensure-table <table>",
		Short: "Create a table if it does not exist",
		Long: `Creates <table> in the configured dataset from a schema file. An existing
table is left untouched unless --force is given, in which case it is dropped
and recreated. The schema is YAML or JSON: a list of fields, or a document
with a top-level "fields" key. Each field has name, type, and optional mode,
description and nested fields.`,
		Example: `  bqw ensure-table contacts --schema schemas/contacts.yaml
  bqw ensure-table contacts --schema gs://my-bucket/schemas/contacts.json --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			data, err := readLocation(ctx, a.Sources, schemaLocation)
			if err != nil {
				return err
			}
			schema, err := parseSchema(data)
			if err != nil {
				return err
			}
			if err := a.Client.EnsureTable(ctx, args[0], schema, force); err != nil {
				return err
			}
			return printResult(cmd, map[string]interface{}{
				"dataset":   a.Client.DatasetID(),
				"table":     args[0],
				"fields":    len(schema),
				"recreated": force,
			}, "dataset", "table", "fields", "recreated")
		},
	}

	cmd.Flags().StringVar(&schemaLocation, "schema", "", "Schema file (path, -, gs://, s3://, az://)")
	cmd.Flags().BoolVar(&force, "force", false, "Drop and recreate the table")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
