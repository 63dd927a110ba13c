package sqlgen

import (
	"fmt"
	"strings"

	"bq-bridge/internal/domain"
)

// Builder renders the data statements for one dataset.
type Builder struct {
	Dialect   Dialect
	Encoder   Encoder
	ProjectID string
	DatasetID string
	// UseParams binds non-NULL values as query parameters instead of
	// inlining literals.
	UseParams bool
}

// NewBuilder returns a Builder whose encoder shares the dialect.
func NewBuilder(d Dialect, projectID, datasetID, flagColumn string, useParams bool) *Builder {
	return &Builder{
		Dialect:   d,
		Encoder:   Encoder{Dialect: d, FlagColumn: flagColumn},
		ProjectID: projectID,
		DatasetID: datasetID,
		UseParams: useParams,
	}
}

// Insert returns: INSERT INTO <dataset>.<table> (<cols>) VALUES (<vals>).
// Columns follow the record's key order.
func (b *Builder) Insert(table string, rec *domain.Record) (domain.Statement, error) {
	if err := ValidateTableName(table); err != nil {
		return domain.Statement{}, domain.ErrValidation("invalid table name: %v", err)
	}
	if rec.Len() == 0 {
		return domain.Statement{}, domain.ErrValidation("insert into %s: record has no columns", table)
	}

	bd := b.newBinder()
	cols := make([]string, 0, rec.Len())
	vals := make([]string, 0, rec.Len())
	for _, k := range rec.Keys() {
		if err := ValidateIdentifier(k); err != nil {
			return domain.Statement{}, domain.ErrValidation("invalid column name %q: %v", k, err)
		}
		v, _ := rec.Get(k)
		expr, err := bd.value(k, v)
		if err != nil {
			return domain.Statement{}, err
		}
		cols = append(cols, b.Dialect.QuoteIdentifier(k))
		vals = append(vals, expr)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.Dialect.TableRef("", b.DatasetID, table),
		strings.Join(cols, ", "),
		strings.Join(vals, ", "),
	)
	return domain.Statement{SQL: sql, Params: bd.params}, nil
}

// Update returns: UPDATE <dataset>.<table> SET c = v, ... WHERE <predicate>.
// Empty text in rec is written as NULL. An empty condition is rejected so
// an update can never touch every row.
func (b *Builder) Update(table string, cond, rec *domain.Record) (domain.Statement, error) {
	if err := ValidateTableName(table); err != nil {
		return domain.Statement{}, domain.ErrValidation("invalid table name: %v", err)
	}
	if rec.Len() == 0 {
		return domain.Statement{}, domain.ErrValidation("update %s: record has no columns", table)
	}
	if cond.Len() == 0 {
		return domain.Statement{}, domain.ErrValidation("update %s: condition is required", table)
	}

	bd := b.newBinder()
	sets := make([]string, 0, rec.Len())
	for _, k := range rec.Keys() {
		if err := ValidateIdentifier(k); err != nil {
			return domain.Statement{}, domain.ErrValidation("invalid column name %q: %v", k, err)
		}
		v, _ := rec.Get(k)
		if s, ok := v.AsText(); ok && s == "" {
			v = domain.Null()
		}
		expr, err := bd.value(k, v)
		if err != nil {
			return domain.Statement{}, err
		}
		sets = append(sets, b.Dialect.QuoteIdentifier(k)+" = "+expr)
	}

	where, err := bd.predicate(cond)
	if err != nil {
		return domain.Statement{}, err
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		b.Dialect.TableRef("", b.DatasetID, table),
		strings.Join(sets, ", "),
		where,
	)
	return domain.Statement{SQL: sql, Params: bd.params}, nil
}

// CountAlias is the output column of the Count statement.
const CountAlias = "total"

// Count returns: SELECT COUNT(*) AS total FROM <project>.<dataset>.<table> WHERE <predicate>.
func (b *Builder) Count(table string, cond *domain.Record) (domain.Statement, error) {
	if err := ValidateTableName(table); err != nil {
		return domain.Statement{}, domain.ErrValidation("invalid table name: %v", err)
	}
	if cond.Len() == 0 {
		return domain.Statement{}, domain.ErrValidation("count %s: condition is required", table)
	}

	bd := b.newBinder()
	where, err := bd.predicate(cond)
	if err != nil {
		return domain.Statement{}, err
	}

	sql := fmt.Sprintf("SELECT COUNT(*) AS %s FROM %s WHERE %s",
		CountAlias,
		b.Dialect.TableRef(b.ProjectID, b.DatasetID, table),
		where,
	)
	return domain.Statement{SQL: sql, Params: bd.params}, nil
}

// Where renders the conjunction for cond and the parameters it binds.
func (b *Builder) Where(cond *domain.Record) (string, []domain.Param, error) {
	bd := b.newBinder()
	where, err := bd.predicate(cond)
	if err != nil {
		return "", nil, err
	}
	return where, bd.params, nil
}

func (b *Builder) newBinder() *binder {
	return &binder{b: b}
}

// binder accumulates parameters in the order their placeholders appear.
type binder struct {
	b      *Builder
	params []domain.Param
}

// value renders v either as a literal or as a bound placeholder.
func (bd *binder) value(column string, v domain.Value) (string, error) {
	if !bd.b.UseParams || v.IsNull() {
		return bd.b.Encoder.Literal(column, v)
	}
	x, err := bd.b.Encoder.Bind(column, v)
	if err != nil {
		return "", err
	}
	text, name := bd.b.Dialect.Placeholder(len(bd.params))
	bd.params = append(bd.params, domain.Param{Name: name, Value: x})
	return text, nil
}

func (bd *binder) predicate(cond *domain.Record) (string, error) {
	parts := make([]string, 0, cond.Len())
	for _, k := range cond.Keys() {
		if err := ValidateIdentifier(k); err != nil {
			return "", domain.ErrValidation("invalid condition column %q: %v", k, err)
		}
		v, _ := cond.Get(k)
		col := bd.b.Dialect.QuoteIdentifier(k)
		if v.IsNull() {
			parts = append(parts, col+" IS NULL")
			continue
		}
		expr, err := bd.value(k, v)
		if err != nil {
			return "", err
		}
		parts = append(parts, col+" = "+expr)
	}
	return strings.Join(parts, " AND "), nil
}
