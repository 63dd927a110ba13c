package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bq-bridge/internal/domain"
)

func newTestBuilder(t *testing.T, useParams bool) *Builder {
	t.Helper()
	d, err := LookupDialect(BigQuery)
	require.NoError(t, err)
	return NewBuilder(d, "my-project", "analytics", DefaultFlagColumn, useParams)
}

func TestBuilderInsert_Literals(t *testing.T) {
	b := newTestBuilder(t, false)
	rec := domain.NewRecord().
		Set("id", domain.Int(5)).
		Set("name", domain.Text("O'Brien")).
		Set(DefaultFlagColumn, domain.Bool(true)).
		Set("deleted_at", domain.Null())

	stmt, err := b.Insert("contacts", rec)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO `analytics`.`contacts` (`id`, `name`, `inserted_to_datawarehouse`, `deleted_at`) VALUES (5, 'O\\'Brien', 1, NULL)",
		stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilderInsert_Params(t *testing.T) {
	b := newTestBuilder(t, true)
	rec := domain.NewRecord().
		Set("id", domain.Int(5)).
		Set("note", domain.Null()).
		Set("name", domain.Text("Ann"))

	stmt, err := b.Insert("contacts", rec)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO `analytics`.`contacts` (`id`, `note`, `name`) VALUES (@p0, NULL, @p1)",
		stmt.SQL)
	assert.Equal(t, []domain.Param{
		{Name: "p0", Value: int64(5)},
		{Name: "p1", Value: "Ann"},
	}, stmt.Params)
}

func TestBuilderInsert_Errors(t *testing.T) {
	b := newTestBuilder(t, false)

	_, err := b.Insert("contacts", domain.NewRecord())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = b.Insert("bad table", domain.NewRecord().Set("a", domain.Int(1)))
	require.ErrorAs(t, err, &ve)

	_, err = b.Insert("contacts", domain.NewRecord().Set("a;b", domain.Int(1)))
	require.ErrorAs(t, err, &ve)
}

func TestBuilderUpdate_EmptyTextBecomesNull(t *testing.T) {
	b := newTestBuilder(t, false)
	cond := domain.NewRecord().Set("id", domain.Int(5))
	rec := domain.NewRecord().
		Set("note", domain.Text("")).
		Set("name", domain.Text("Ann"))

	stmt, err := b.Update("contacts", cond, rec)
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE `analytics`.`contacts` SET `note` = NULL, `name` = 'Ann' WHERE `id` = 5",
		stmt.SQL)
	assert.NotContains(t, stmt.SQL, "''")
}

func TestBuilderUpdate_Params(t *testing.T) {
	b := newTestBuilder(t, true)
	cond := domain.NewRecord().
		Set("id", domain.Int(5)).
		Set(DefaultFlagColumn, domain.Bool(false))
	rec := domain.NewRecord().
		Set("note", domain.Text("")).
		Set("name", domain.Text("Ann"))

	stmt, err := b.Update("contacts", cond, rec)
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE `analytics`.`contacts` SET `note` = NULL, `name` = @p0 WHERE `id` = @p1 AND `inserted_to_datawarehouse` = @p2",
		stmt.SQL)
	assert.Equal(t, []domain.Param{
		{Name: "p0", Value: "Ann"},
		{Name: "p1", Value: int64(5)},
		{Name: "p2", Value: int64(0)},
	}, stmt.Params)
}

func TestBuilderUpdate_RequiresCondition(t *testing.T) {
	b := newTestBuilder(t, false)
	_, err := b.Update("contacts", domain.NewRecord(), domain.NewRecord().Set("a", domain.Int(1)))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "condition is required")
}

func TestBuilderCount(t *testing.T) {
	b := newTestBuilder(t, false)
	cond := domain.NewRecord().
		Set("id", domain.Int(5)).
		Set("email", domain.Text("a@b.c")).
		Set("deleted_at", domain.Null())

	stmt, err := b.Count("contacts", cond)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT COUNT(*) AS total FROM `my-project`.`analytics`.`contacts` WHERE `id` = 5 AND `email` = 'a@b.c' AND `deleted_at` IS NULL",
		stmt.SQL)
}

func TestBuilderWhere_FlagCoerced(t *testing.T) {
	b := newTestBuilder(t, false)
	where, params, err := b.Where(domain.NewRecord().Set(DefaultFlagColumn, domain.Bool(true)))
	require.NoError(t, err)
	assert.Equal(t, "`inserted_to_datawarehouse` = 1", where)
	assert.Empty(t, params)
}

func TestBuilder_PostgresPlaceholders(t *testing.T) {
	d, err := LookupDialect(Postgres)
	require.NoError(t, err)
	b := NewBuilder(d, "", "analytics", DefaultFlagColumn, true)

	stmt, err := b.Update("contacts",
		domain.NewRecord().Set("id", domain.Int(5)),
		domain.NewRecord().Set("name", domain.Text("Ann")))
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "analytics"."contacts" SET "name" = $1 WHERE "id" = $2`, stmt.SQL)
	require.Len(t, stmt.Params, 2)
	assert.Equal(t, "Ann", stmt.Params[0].Value)
	assert.Equal(t, int64(5), stmt.Params[1].Value)
}
