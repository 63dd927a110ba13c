package sqlgen

import (
	"fmt"
	"strings"

	"bq-bridge/internal/domain"
)

// localTypes maps normalized BigQuery types to column types per local engine.
// Types without a native counterpart are stored as text.
var localTypes = map[string]map[string]string{
	DuckDB: {
		"STRING": "VARCHAR", "BYTES": "BLOB", "INT64": "BIGINT", "FLOAT64": "DOUBLE",
		"NUMERIC": "DECIMAL(38,9)", "BIGNUMERIC": "DECIMAL(38,9)", "BOOL": "BOOLEAN",
		"TIMESTAMP": "TIMESTAMPTZ", "DATE": "DATE", "TIME": "TIME", "DATETIME": "TIMESTAMP",
		"JSON": "VARCHAR", "GEOGRAPHY": "VARCHAR", "RECORD": "VARCHAR",
	},
	Postgres: {
		"STRING": "TEXT", "BYTES": "BYTEA", "INT64": "BIGINT", "FLOAT64": "DOUBLE PRECISION",
		"NUMERIC": "NUMERIC", "BIGNUMERIC": "NUMERIC", "BOOL": "BOOLEAN",
		"TIMESTAMP": "TIMESTAMPTZ", "DATE": "DATE", "TIME": "TIME", "DATETIME": "TIMESTAMP",
		"JSON": "JSONB", "GEOGRAPHY": "TEXT", "RECORD": "JSONB",
	},
	SQLite: {
		"STRING": "TEXT", "BYTES": "BLOB", "INT64": "INTEGER", "FLOAT64": "REAL",
		"NUMERIC": "NUMERIC", "BIGNUMERIC": "NUMERIC", "BOOL": "INTEGER",
		"TIMESTAMP": "TEXT", "DATE": "TEXT", "TIME": "TEXT", "DATETIME": "TEXT",
		"JSON": "TEXT", "GEOGRAPHY": "TEXT", "RECORD": "TEXT",
	},
}

// ColumnType returns the local column type for a schema field.
func ColumnType(d Dialect, f domain.FieldSchema) (string, error) {
	types, ok := localTypes[d.Name()]
	if !ok {
		return "", fmt.Errorf("dialect %s has no local type mapping", d.Name())
	}
	t, ok := types[f.NormalizedType()]
	if !ok {
		return "", fmt.Errorf("unsupported column type %q", f.Type)
	}
	if f.NormalizedMode() == domain.ModeRepeated {
		switch d.Name() {
		case DuckDB, Postgres:
			t += "[]"
		default:
			t = "TEXT"
		}
	}
	return t, nil
}

// CreateSchema returns CREATE SCHEMA IF NOT EXISTS "<dataset>", or "" when the
// engine has no schemas.
func CreateSchema(d Dialect, dataset string) (string, error) {
	if err := ValidateTableName(dataset); err != nil {
		return "", fmt.Errorf("invalid dataset name: %w", err)
	}
	if d.Name() == SQLite {
		return "", nil
	}
	return "CREATE SCHEMA IF NOT EXISTS " + d.QuoteIdentifier(dataset), nil
}

// CreateTable returns:
// CREATE TABLE <dataset>.<table> ("<col1>" TYPE1 [NOT NULL], ...).
func CreateTable(d Dialect, dataset, table string, schema domain.TableSchema) (string, error) {
	if err := ValidateTableName(dataset); err != nil {
		return "", fmt.Errorf("invalid dataset name: %w", err)
	}
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	if err := ValidateSchema(schema); err != nil {
		return "", err
	}

	colDefs := make([]string, 0, len(schema))
	for _, f := range schema {
		t, err := ColumnType(d, f)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", f.Name, err)
		}
		def := d.QuoteIdentifier(f.Name) + " " + t
		if f.NormalizedMode() == domain.ModeRequired {
			def += " NOT NULL"
		}
		colDefs = append(colDefs, def)
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)",
		d.TableRef("", dataset, table),
		strings.Join(colDefs, ", "),
	), nil
}

// DropTable returns: DROP TABLE <dataset>.<table>.
func DropTable(d Dialect, dataset, table string) (string, error) {
	if err := ValidateTableName(dataset); err != nil {
		return "", fmt.Errorf("invalid dataset name: %w", err)
	}
	if err := ValidateTableName(table); err != nil {
		return "", fmt.Errorf("invalid table name: %w", err)
	}
	return "DROP TABLE " + d.TableRef("", dataset, table), nil
}

// TableExists returns a query yielding one integer row: the number of
// tables named <dataset>.<table>.
func TableExists(d Dialect, dataset, table string) (domain.Statement, error) {
	if err := ValidateTableName(dataset); err != nil {
		return domain.Statement{}, fmt.Errorf("invalid dataset name: %w", err)
	}
	if err := ValidateTableName(table); err != nil {
		return domain.Statement{}, fmt.Errorf("invalid table name: %w", err)
	}

	p0, _ := d.Placeholder(0)
	if d.Name() == SQLite {
		return domain.Statement{
			SQL:    "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = " + p0,
			Params: []domain.Param{{Value: FlatTableName(dataset, table)}},
		}, nil
	}
	p1, _ := d.Placeholder(1)
	return domain.Statement{
		SQL: fmt.Sprintf("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = %s AND table_name = %s", p0, p1),
		Params: []domain.Param{
			{Value: dataset},
			{Value: table},
		},
	}, nil
}
