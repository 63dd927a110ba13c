package domain

import "strings"

// Field modes.
const (
	ModeNullable = "NULLABLE"
	ModeRequired = "REQUIRED"
	ModeRepeated = "REPEATED"
)

// FieldSchema describes one column for table creation. Field names and types
// use the BigQuery schema vocabulary; nested Fields apply to RECORD columns.
type FieldSchema struct {
	Name        string        `yaml:"name" json:"name"`
	Type        string        `yaml:"type" json:"type"`
	Mode        string        `yaml:"mode,omitempty" json:"mode,omitempty"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []FieldSchema `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// NormalizedType returns the upper-cased type with legacy aliases resolved.
func (f FieldSchema) NormalizedType() string {
	t := strings.ToUpper(strings.TrimSpace(f.Type))
	switch t {
	case "INTEGER":
		return "INT64"
	case "FLOAT":
		return "FLOAT64"
	case "BOOLEAN":
		return "BOOL"
	case "STRUCT":
		return "RECORD"
	}
	return t
}

// NormalizedMode returns the upper-cased mode, NULLABLE when unset.
func (f FieldSchema) NormalizedMode() string {
	m := strings.ToUpper(strings.TrimSpace(f.Mode))
	if m == "" {
		return ModeNullable
	}
	return m
}

// TableSchema is an ordered list of field descriptors.
type TableSchema []FieldSchema

// SupportedTypes lists the column types accepted in a TableSchema.
var SupportedTypes = map[string]bool{
	"STRING":     true,
	"BYTES":      true,
	"INT64":      true,
	"FLOAT64":    true,
	"NUMERIC":    true,
	"BIGNUMERIC": true,
	"BOOL":       true,
	"TIMESTAMP":  true,
	"DATE":       true,
	"TIME":       true,
	"DATETIME":   true,
	"JSON":       true,
	"GEOGRAPHY":  true,
	"RECORD":     true,
}
