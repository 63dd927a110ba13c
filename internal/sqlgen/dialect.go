// Package sqlgen renders warehouse SQL: identifier quoting, value literals,
// and the INSERT / UPDATE / COUNT and DDL statements used by the client.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect names.
const (
	BigQuery = "bigquery"
	DuckDB   = "duckdb"
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// Dialect captures the syntax differences between backends.
type Dialect interface {
	Name() string

	// QuoteIdentifier quotes a single identifier unconditionally.
	QuoteIdentifier(name string) string

	// QuoteLiteral renders s as a string literal.
	QuoteLiteral(s string) string

	// TableRef renders a table reference. An empty project leaves the
	// reference dataset-qualified only.
	TableRef(project, dataset, table string) string

	// Placeholder returns the SQL text and parameter name for the
	// zero-based i-th bound parameter.
	Placeholder(i int) (text, name string)
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (Dialect, error) {
	switch name {
	case BigQuery:
		return bigQueryDialect{}, nil
	case DuckDB:
		return ansiDialect{name: DuckDB}, nil
	case Postgres:
		return ansiDialect{name: Postgres, dollarParams: true}, nil
	case SQLite:
		return ansiDialect{name: SQLite, flatTables: true}, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

// bigQueryDialect is GoogleSQL: backtick identifiers, backslash-escaped
// literals and @name parameters.
type bigQueryDialect struct{}

func (bigQueryDialect) Name() string { return BigQuery }

// QuoteIdentifier wraps name in backticks, escaping backslashes and backticks.
func (bigQueryDialect) QuoteIdentifier(name string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")
	return "`" + r.Replace(name) + "`"
}

func (bigQueryDialect) QuoteLiteral(s string) string {
	return QuoteBigQueryLiteral(s)
}

func (d bigQueryDialect) TableRef(project, dataset, table string) string {
	ref := d.QuoteIdentifier(dataset) + "." + d.QuoteIdentifier(table)
	if project != "" {
		ref = d.QuoteIdentifier(project) + "." + ref
	}
	return ref
}

func (bigQueryDialect) Placeholder(i int) (string, string) {
	name := "p" + strconv.Itoa(i)
	return "@" + name, name
}

// ansiDialect covers the local engines. Postgres numbers its parameters,
// SQLite has no schemas so dataset and table are folded into one name.
type ansiDialect struct {
	name         string
	dollarParams bool
	flatTables   bool
}

func (d ansiDialect) Name() string { return d.name }

// QuoteIdentifier wraps a SQL identifier in double quotes, escaping any
// embedded double-quote characters by doubling them (standard SQL).
func (ansiDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes, escaping any
// embedded single-quote characters by doubling them (standard SQL).
func (ansiDialect) QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (d ansiDialect) TableRef(_, dataset, table string) string {
	if d.flatTables {
		return d.QuoteIdentifier(FlatTableName(dataset, table))
	}
	return d.QuoteIdentifier(dataset) + "." + d.QuoteIdentifier(table)
}

func (d ansiDialect) Placeholder(i int) (string, string) {
	if d.dollarParams {
		return "$" + strconv.Itoa(i+1), ""
	}
	return "?", ""
}

// FlatTableName is the single-level table name used where the engine has no
// schemas.
func FlatTableName(dataset, table string) string {
	return dataset + "__" + table
}

// QuoteBigQueryLiteral renders s as a GoogleSQL single-quoted string literal.
// Quotes and backslashes are backslash-escaped, as are control characters,
// so the literal never spans lines and always decodes back to s.
func QuoteBigQueryLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
