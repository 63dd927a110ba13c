package sqlgen

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bq-bridge/internal/domain"
)

func bigQueryEncoder(t *testing.T) Encoder {
	t.Helper()
	d, err := LookupDialect(BigQuery)
	require.NoError(t, err)
	return Encoder{Dialect: d, FlagColumn: DefaultFlagColumn}
}

func TestEncoderLiteral(t *testing.T) {
	enc := bigQueryEncoder(t)

	tests := []struct {
		name   string
		column string
		value  domain.Value
		want   string
	}{
		{name: "null", column: "a", value: domain.Null(), want: "NULL"},
		{name: "true", column: "a", value: domain.Bool(true), want: "TRUE"},
		{name: "false", column: "a", value: domain.Bool(false), want: "FALSE"},
		{name: "int", column: "a", value: domain.Int(-42), want: "-42"},
		{name: "float", column: "a", value: domain.Float(1.5), want: "1.5"},
		{name: "text", column: "a", value: domain.Text("hello"), want: "'hello'"},
		{name: "text_quote", column: "a", value: domain.Text("it's"), want: `'it\'s'`},
		{name: "text_backslash", column: "a", value: domain.Text(`c:\tmp`), want: `'c:\\tmp'`},
		{name: "text_newline", column: "a", value: domain.Text("a\nb"), want: `'a\nb'`},
		{name: "flag_true", column: DefaultFlagColumn, value: domain.Bool(true), want: "1"},
		{name: "flag_false", column: DefaultFlagColumn, value: domain.Bool(false), want: "0"},
		{name: "flag_float", column: DefaultFlagColumn, value: domain.Float(1.0), want: "1"},
		{name: "flag_null", column: DefaultFlagColumn, value: domain.Null(), want: "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := enc.Literal(tt.column, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncoderLiteral_Errors(t *testing.T) {
	enc := bigQueryEncoder(t)

	_, err := enc.Literal("score", domain.Float(math.NaN()))
	var encErr *domain.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "score", encErr.Column)

	_, err = enc.Literal("score", domain.Float(math.Inf(1)))
	require.ErrorAs(t, err, &encErr)

	_, err = enc.Literal(DefaultFlagColumn, domain.Text("maybe"))
	require.ErrorAs(t, err, &encErr)
}

func TestEncoderBind(t *testing.T) {
	enc := bigQueryEncoder(t)

	v, err := enc.Bind("name", domain.Text("Ann"))
	require.NoError(t, err)
	assert.Equal(t, "Ann", v)

	v, err = enc.Bind(DefaultFlagColumn, domain.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = enc.Bind("name", domain.Null())
	var encErr *domain.EncodingError
	require.ErrorAs(t, err, &encErr)
}

// unquoteBigQuery decodes a single-quoted GoogleSQL literal.
func unquoteBigQuery(t *testing.T, lit string) string {
	t.Helper()
	require.True(t, len(lit) >= 2 && lit[0] == '\'' && lit[len(lit)-1] == '\'', "not a quoted literal: %s", lit)
	body := lit[1 : len(lit)-1]

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		require.NotEqual(t, byte('\''), c, "unescaped quote in %s", lit)
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		require.Less(t, i, len(body), "dangling escape in %s", lit)
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'x':
			require.LessOrEqual(t, i+2, len(body)-1)
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			require.NoError(t, err)
			b.WriteByte(byte(n))
			i += 2
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

func TestQuoteBigQueryLiteral_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"it's",
		`'; DROP TABLE users; --`,
		`back\slash`,
		`\'`,
		"multi\nline\r\n",
		"tab\there",
		"bell\x07 and del\x7f",
		"unicode ü 日本",
		`''''`,
	}
	for _, in := range inputs {
		lit := QuoteBigQueryLiteral(in)
		assert.Equal(t, in, unquoteBigQuery(t, lit), "literal %s", lit)
		assert.NotContains(t, lit, "\n")
	}
}
