package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"bq-bridge/internal/domain"
)

const assignmentHelp = `Values are typed: null, true/false, integers and floats are recognised,
anything else is text. Quote a value to force text, e.g. --set zip='"01234"'.`

func newInsertSQLCmd(rt *runtime) *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:     "insert-sql <table>",
		Short:   "Insert one row with an INSERT statement",
		Long:    "Runs INSERT INTO <dataset>.<table> as a query job.\n\n" + assignmentHelp,
		Example: `  bqw insert-sql contacts --set id=5 --set name=Ann`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseAssignments(set)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			done, err := a.Client.ExecuteInsert(ctx, args[0], rec)
			if err != nil {
				return err
			}
			return printDone(cmd, args[0], done)
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "column=value to insert (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newUpdateCmd(rt *runtime) *cobra.Command {
	var where, set []string

	cmd := &cobra.Command{
		Use:   "update <table>",
		Short: "Update rows matching a condition",
		Long: `Runs UPDATE <dataset>.<table> SET ... WHERE ... as a query job. Empty
text values are written as NULL.

` + assignmentHelp,
		Example: `  bqw update contacts --where id=5 --set name=Ann --set note=`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, rec, err := parseConditionAndData(where, set)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			done, err := a.Client.ExecuteUpdate(ctx, args[0], cond, rec)
			if err != nil {
				return err
			}
			return printDone(cmd, args[0], done)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value condition, joined with AND (repeatable)")
	cmd.Flags().StringArrayVar(&set, "set", nil, "column=value to write (repeatable)")
	_ = cmd.MarkFlagRequired("where")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func newUpsertCmd(rt *runtime) *cobra.Command {
	var where, set []string

	cmd := &cobra.Command{
		Use:   "upsert <table>",
		Short: "Update matching rows, or insert one if none match",
		Long: `Counts rows matching --where. If any exist they are updated with --set;
otherwise one row combining --where and --set is inserted, with --set
winning on shared columns.

` + assignmentHelp,
		Example: `  bqw upsert contacts --where id=5 --set name=Ann`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, rec, err := parseConditionAndData(where, set)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			done, err := a.Client.Upsert(ctx, args[0], cond, rec)
			if err != nil {
				return err
			}
			return printDone(cmd, args[0], done)
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value condition, joined with AND (repeatable)")
	cmd.Flags().StringArrayVar(&set, "set", nil, "column=value to write (repeatable)")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func newCountCmd(rt *runtime) *cobra.Command {
	var where []string

	cmd := &cobra.Command{
		Use:     "count <table>",
		Short:   "Count rows matching a condition",
		Long:    "Runs SELECT COUNT(*) against <project>.<dataset>.<table>.\n\n" + assignmentHelp,
		Example: `  bqw count contacts --where id=5`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cond, err := parseAssignments(where)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := rt.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			n, err := a.Client.Count(ctx, args[0], cond)
			if err != nil {
				return err
			}
			return printResult(cmd, map[string]interface{}{
				"table": args[0],
				"count": n,
			}, "table", "count")
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value condition, joined with AND (repeatable)")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func parseConditionAndData(where, set []string) (cond, data *domain.Record, err error) {
	cond, err = parseAssignments(where)
	if err != nil {
		return nil, nil, err
	}
	data, err = parseAssignments(set)
	if err != nil {
		return nil, nil, err
	}
	if cond.Len() == 0 {
		return nil, nil, errors.New("at least one --where condition is required")
	}
	return cond, data, nil
}

func printDone(cmd *cobra.Command, table string, done bool) error {
	return printResult(cmd, map[string]interface{}{
		"table": table,
		"done":  done,
	}, "table", "done")
}
