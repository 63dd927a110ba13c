package sqlgen

import (
	"math"
	"strconv"

	"bq-bridge/internal/domain"
)

// DefaultFlagColumn is the boolean-like column written as 0/1 rather than
// TRUE/FALSE.
const DefaultFlagColumn = "inserted_to_datawarehouse"

// Encoder turns domain values into SQL literals or bindable parameters.
type Encoder struct {
	Dialect    Dialect
	FlagColumn string
}

// Literal renders v as SQL text for column. Values on the flag column are
// coerced to integers.
func (e Encoder) Literal(column string, v domain.Value) (string, error) {
	if e.isFlag(column) && !v.IsNull() {
		n, err := flagInt(column, v)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	}

	switch v.Kind() {
	case domain.KindNull:
		return "NULL", nil
	case domain.KindBool:
		b, _ := v.AsBool()
		if b {
			return "TRUE", nil
		}
		return "FALSE", nil
	case domain.KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10), nil
	case domain.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", domain.ErrEncoding(column, "non-finite float %v", f)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case domain.KindText:
		s, _ := v.AsText()
		return e.Dialect.QuoteLiteral(s), nil
	default:
		return "", domain.ErrEncoding(column, "unsupported value kind %s", v.Kind())
	}
}

// Bind returns the Go value to pass as a query parameter for column. NULL
// cannot be bound untyped, so callers render it as a literal instead.
func (e Encoder) Bind(column string, v domain.Value) (any, error) {
	if e.isFlag(column) && !v.IsNull() {
		return flagInt(column, v)
	}

	switch v.Kind() {
	case domain.KindNull:
		return nil, domain.ErrEncoding(column, "NULL cannot be bound as a parameter")
	case domain.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, domain.ErrEncoding(column, "non-finite float %v", f)
		}
		return f, nil
	case domain.KindBool, domain.KindInt, domain.KindText:
		return v.Interface(), nil
	default:
		return nil, domain.ErrEncoding(column, "unsupported value kind %s", v.Kind())
	}
}

func (e Encoder) isFlag(column string) bool {
	return e.FlagColumn != "" && column == e.FlagColumn
}

// flagInt coerces a flag column value to 0/1-style integers.
func flagInt(column string, v domain.Value) (int64, error) {
	switch v.Kind() {
	case domain.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, nil
		}
		return 0, nil
	case domain.KindInt:
		i, _ := v.AsInt()
		return i, nil
	case domain.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, domain.ErrEncoding(column, "non-finite float %v", f)
		}
		return int64(f), nil
	case domain.KindText:
		s, _ := v.AsText()
		switch s {
		case "", "0", "false":
			return 0, nil
		case "1", "true":
			return 1, nil
		}
		return 0, domain.ErrEncoding(column, "flag column expects a boolean, got %q", s)
	default:
		return 0, domain.ErrEncoding(column, "unsupported value kind %s", v.Kind())
	}
}
