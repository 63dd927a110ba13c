package bigquery

import (
	bq "cloud.google.com/go/bigquery"

	"bq-bridge/internal/domain"
)

var fieldTypes = map[string]bq.FieldType{
	"STRING":     bq.StringFieldType,
	"BYTES":      bq.BytesFieldType,
	"INT64":      bq.IntegerFieldType,
	"FLOAT64":    bq.FloatFieldType,
	"NUMERIC":    bq.NumericFieldType,
	"BIGNUMERIC": bq.BigNumericFieldType,
	"BOOL":       bq.BooleanFieldType,
	"TIMESTAMP":  bq.TimestampFieldType,
	"DATE":       bq.DateFieldType,
	"TIME":       bq.TimeFieldType,
	"DATETIME":   bq.DateTimeFieldType,
	"JSON":       bq.JSONFieldType,
	"GEOGRAPHY":  bq.GeographyFieldType,
	"RECORD":     bq.RecordFieldType,
}

// toSchema converts a validated TableSchema to the client library's schema.
func toSchema(schema domain.TableSchema) bq.Schema {
	out := make(bq.Schema, 0, len(schema))
	for _, f := range schema {
		out = append(out, toFieldSchema(f))
	}
	return out
}

func toFieldSchema(f domain.FieldSchema) *bq.FieldSchema {
	mode := f.NormalizedMode()
	fs := &bq.FieldSchema{
		Name:        f.Name,
		Description: f.Description,
		Type:        fieldTypes[f.NormalizedType()],
		Required:    mode == domain.ModeRequired,
		Repeated:    mode == domain.ModeRepeated,
	}
	if len(f.Fields) > 0 {
		fs.Schema = toSchema(f.Fields)
	}
	return fs
}
